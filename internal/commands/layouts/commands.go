package layoutscmd

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-storefront/internal/commands"
	"github.com/goliatone/go-storefront/internal/domain"
	"github.com/goliatone/go-storefront/internal/layout"
	"github.com/goliatone/go-storefront/internal/logging"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

const (
	saveLayoutMessageType    = "storefront.layouts.save"
	publishLayoutMessageType = "storefront.layouts.publish"

	slowBackendCall = 2 * time.Second
)

var (
	_ command.Commander[SaveLayoutCommand]    = (*SaveLayoutHandler)(nil)
	_ command.Commander[PublishLayoutCommand] = (*PublishLayoutHandler)(nil)
)

// AdminClient is the backend surface the layout commands call.
type AdminClient interface {
	SaveLayout(ctx context.Context, pageType domain.PageType, name string, doc *layout.Document) error
	PublishLayout(ctx context.Context, pageType domain.PageType) error
}

// ClientFor returns the admin client authenticated as the editor holding
// token.
type ClientFor func(token string) AdminClient

// DocumentValidator checks a document before it is stored.
type DocumentValidator interface {
	ValidateDocument(doc *layout.Document) error
}

// SaveLayoutCommand stores a draft layout.
type SaveLayoutCommand struct {
	Token    string           `json:"-"`
	PageType domain.PageType  `json:"page_type"`
	Name     string           `json:"name,omitempty"`
	Document *layout.Document `json:"layout_json"`
}

func (SaveLayoutCommand) Type() string { return saveLayoutMessageType }

func (m SaveLayoutCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Token, validation.Required.Error("admin token is required")),
		validation.Field(&m.PageType, validation.Required, validation.By(validPageType)),
		validation.Field(&m.Document, validation.NotNil),
		validation.Field(&m.Name, validation.Length(0, 120)),
	)
}

// PublishLayoutCommand promotes the current draft of a page type.
type PublishLayoutCommand struct {
	Token    string          `json:"-"`
	PageType domain.PageType `json:"page_type"`
}

func (PublishLayoutCommand) Type() string { return publishLayoutMessageType }

func (m PublishLayoutCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Token, validation.Required.Error("admin token is required")),
		validation.Field(&m.PageType, validation.Required, validation.By(validPageType)),
	)
}

func validPageType(value any) error {
	pageType, _ := value.(domain.PageType)
	if _, ok := domain.ParsePageType(string(pageType)); !ok {
		return validation.NewError("storefront.layouts.page_type_invalid", "unknown page type")
	}
	return nil
}

// SaveLayoutHandler validates and stores drafts.
type SaveLayoutHandler struct {
	inner *commands.Handler[SaveLayoutCommand]
}

func NewSaveLayoutHandler(clients ClientFor, validator DocumentValidator, logger interfaces.Logger, opts ...commands.HandlerOption[SaveLayoutCommand]) *SaveLayoutHandler {
	exec := func(ctx context.Context, msg SaveLayoutCommand) error {
		if validator != nil {
			if err := validator.ValidateDocument(msg.Document); err != nil {
				return err
			}
		}
		return clients(msg.Token).SaveLayout(ctx, msg.PageType, msg.Name, msg.Document)
	}

	handlerOpts := []commands.HandlerOption[SaveLayoutCommand]{
		commands.WithLogger[SaveLayoutCommand](logging.OrNoOp(logger)),
		commands.WithOperation[SaveLayoutCommand]("layouts.save"),
		commands.WithMessageFields(func(msg SaveLayoutCommand) map[string]any {
			fields := map[string]any{"page_type": string(msg.PageType)}
			if msg.Document != nil {
				fields["sections"] = len(msg.Document.Content)
			}
			if name := strings.TrimSpace(msg.Name); name != "" {
				fields["name"] = name
			}
			return fields
		}),
		commands.WithTelemetry(commands.LatencyTelemetry[SaveLayoutCommand](slowBackendCall)),
	}
	return &SaveLayoutHandler{inner: commands.NewHandler(exec, append(handlerOpts, opts...)...)}
}

// Execute satisfies command.Commander[SaveLayoutCommand].
func (h *SaveLayoutHandler) Execute(ctx context.Context, msg SaveLayoutCommand) error {
	return h.inner.Execute(ctx, msg)
}

// PublishLayoutHandler publishes drafts.
type PublishLayoutHandler struct {
	inner *commands.Handler[PublishLayoutCommand]
}

func NewPublishLayoutHandler(clients ClientFor, logger interfaces.Logger, opts ...commands.HandlerOption[PublishLayoutCommand]) *PublishLayoutHandler {
	exec := func(ctx context.Context, msg PublishLayoutCommand) error {
		return clients(msg.Token).PublishLayout(ctx, msg.PageType)
	}

	handlerOpts := []commands.HandlerOption[PublishLayoutCommand]{
		commands.WithLogger[PublishLayoutCommand](logging.OrNoOp(logger)),
		commands.WithOperation[PublishLayoutCommand]("layouts.publish"),
		commands.WithMessageFields(func(msg PublishLayoutCommand) map[string]any {
			return map[string]any{"page_type": string(msg.PageType)}
		}),
		commands.WithTelemetry(commands.LatencyTelemetry[PublishLayoutCommand](slowBackendCall)),
	}
	return &PublishLayoutHandler{inner: commands.NewHandler(exec, append(handlerOpts, opts...)...)}
}

// Execute satisfies command.Commander[PublishLayoutCommand].
func (h *PublishLayoutHandler) Execute(ctx context.Context, msg PublishLayoutCommand) error {
	return h.inner.Execute(ctx, msg)
}
