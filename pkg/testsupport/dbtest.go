package testsupport

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// NewBunSQLiteDB opens a private in-memory sqlite database named after the
// calling test so parallel tests never share tables.
func NewBunSQLiteDB(name string) (*bun.DB, error) {
	name = strings.NewReplacer("/", "_", " ", "_").Replace(name)
	sqldb, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", name))
	if err != nil {
		return nil, err
	}
	sqldb.SetMaxOpenConns(1)
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}
