package sections

import (
	"github.com/mitchellh/mapstructure"
)

type HeroBannerProps struct {
	Title            string  `mapstructure:"title"`
	Subtitle         string  `mapstructure:"subtitle"`
	BgImage          string  `mapstructure:"bg_image"`
	BgVideo          string  `mapstructure:"bg_video"`
	CTAText          string  `mapstructure:"cta_text"`
	CTALink          string  `mapstructure:"cta_link"`
	SecondaryCTAText string  `mapstructure:"secondary_cta_text"`
	SecondaryCTALink string  `mapstructure:"secondary_cta_link"`
	OverlayOpacity   float64 `mapstructure:"overlay_opacity"`
	TextColor        string  `mapstructure:"text_color"`
	TextAlignment    string  `mapstructure:"text_alignment"`
	Height           string  `mapstructure:"height"`
}

type AnnouncementBarProps struct {
	Text            string `mapstructure:"text"`
	Link            string `mapstructure:"link"`
	LinkText        string `mapstructure:"link_text"`
	BackgroundColor string `mapstructure:"background_color"`
	TextColor       string `mapstructure:"text_color"`
	Dismissible     bool   `mapstructure:"dismissible"`
}

type ProductGridProps struct {
	Title            string `mapstructure:"title"`
	Subtitle         string `mapstructure:"subtitle"`
	CollectionHandle string `mapstructure:"collection_handle"`
	Limit            int    `mapstructure:"limit"`
	Columns          int    `mapstructure:"columns"`
	ShowPrice        bool   `mapstructure:"show_price"`
	ShowVendor       bool   `mapstructure:"show_vendor"`
	ShowSaleBadge    bool   `mapstructure:"show_sale_badge"`
	ImageRatio       string `mapstructure:"image_ratio"`
}

type ProductMainProps struct {
	GalleryPosition      string `mapstructure:"gallery_position"`
	ShowVendor           bool   `mapstructure:"show_vendor"`
	ShowSKU              bool   `mapstructure:"show_sku"`
	ShowQuantitySelector bool   `mapstructure:"show_quantity_selector"`
}

type CollectionListProps struct {
	Title            string `mapstructure:"title"`
	Subtitle         string `mapstructure:"subtitle"`
	Columns          int    `mapstructure:"columns"`
	Limit            int    `mapstructure:"limit"`
	ShowProductCount bool   `mapstructure:"show_product_count"`
	ImageRatio       string `mapstructure:"image_ratio"`
	CardStyle        string `mapstructure:"card_style"`
}

type CollectionFiltersProps struct {
	ShowSort   bool   `mapstructure:"show_sort"`
	ShowFilter bool   `mapstructure:"show_filter"`
	FilterType string `mapstructure:"filter_type"`
}

type RichTextProps struct {
	Title           string `mapstructure:"title"`
	Heading         string `mapstructure:"heading"`
	Content         string `mapstructure:"content"`
	TextAlignment   string `mapstructure:"text_alignment"`
	MaxWidth        string `mapstructure:"max_width"`
	Padding         string `mapstructure:"padding"`
	BackgroundColor string `mapstructure:"background_color"`
	TextColor       string `mapstructure:"text_color"`
}

type ImageWithTextProps struct {
	ImageURL          string `mapstructure:"image_url"`
	ImagePosition     string `mapstructure:"image_position"`
	ImageWidth        string `mapstructure:"image_width"`
	Title             string `mapstructure:"title"`
	Subtitle          string `mapstructure:"subtitle"`
	Content           string `mapstructure:"content"`
	CTAText           string `mapstructure:"cta_text"`
	CTALink           string `mapstructure:"cta_link"`
	BackgroundColor   string `mapstructure:"background_color"`
	TextColor         string `mapstructure:"text_color"`
	VerticalAlignment string `mapstructure:"vertical_alignment"`
}

type NewsletterProps struct {
	Title           string `mapstructure:"title"`
	Subtitle        string `mapstructure:"subtitle"`
	Placeholder     string `mapstructure:"placeholder"`
	ButtonText      string `mapstructure:"button_text"`
	SuccessMessage  string `mapstructure:"success_message"`
	BackgroundColor string `mapstructure:"background_color"`
	TextColor       string `mapstructure:"text_color"`
	TextAlignment   string `mapstructure:"text_alignment"`
	Layout          string `mapstructure:"layout"`
}

type Testimonial struct {
	Author  string `mapstructure:"author"`
	Role    string `mapstructure:"role"`
	Content string `mapstructure:"content"`
	Avatar  string `mapstructure:"avatar"`
	Rating  int    `mapstructure:"rating"`
}

type TestimonialsProps struct {
	Title           string        `mapstructure:"title"`
	Subtitle        string        `mapstructure:"subtitle"`
	Layout          string        `mapstructure:"layout"`
	Columns         int           `mapstructure:"columns"`
	ShowRating      bool          `mapstructure:"show_rating"`
	BackgroundColor string        `mapstructure:"background_color"`
	Testimonials    []Testimonial `mapstructure:"testimonials"`
}

type FooterLink struct {
	Label string `mapstructure:"label"`
	URL   string `mapstructure:"url"`
}

type FooterColumn struct {
	Title string       `mapstructure:"title"`
	Links []FooterLink `mapstructure:"links"`
}

type FooterProps struct {
	LogoURL          string         `mapstructure:"logo_url"`
	Tagline          string         `mapstructure:"tagline"`
	ShowSocial       bool           `mapstructure:"show_social"`
	SocialFacebook   string         `mapstructure:"social_facebook"`
	SocialInstagram  string         `mapstructure:"social_instagram"`
	SocialTwitter    string         `mapstructure:"social_twitter"`
	SocialYouTube    string         `mapstructure:"social_youtube"`
	ShowPaymentIcons bool           `mapstructure:"show_payment_icons"`
	CopyrightText    string         `mapstructure:"copyright_text"`
	BackgroundColor  string         `mapstructure:"background_color"`
	TextColor        string         `mapstructure:"text_color"`
	Columns          []FooterColumn `mapstructure:"columns"`
}

// DecodeProps decodes a property bag into a typed props struct. Values are
// weakly typed so "4" decodes into an int and "true" into a bool.
func DecodeProps[T any](props map[string]any) (T, error) {
	var out T
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return out, err
	}
	if err := decoder.Decode(props); err != nil {
		return out, err
	}
	return out, nil
}
