package sections

var builtinCategories = []Category{
	{ID: "hero", Title: "Hero", Kinds: []Kind{KindHeroBanner, KindAnnouncementBar}},
	{ID: "content", Title: "Content", Kinds: []Kind{KindRichText, KindImageWithText, KindNewsletter}},
	{ID: "commerce", Title: "Commerce", Kinds: []Kind{KindProductGrid, KindProductMain, KindCollectionList, KindCollectionFilters}},
	{ID: "socialProof", Title: "Social Proof", Kinds: []Kind{KindTestimonials}},
	{ID: "layout", Title: "Layout", Kinds: []Kind{KindFooter}},
	{ID: "integrations", Title: "Integrations", Collapsed: true, Kinds: []Kind{KindAppBlock}},
}

var (
	alignOptions   = []Option{opt("Left", "left"), opt("Center", "center"), opt("Right", "right")}
	ratioOptions   = []Option{opt("Square", "square"), opt("Portrait", "portrait"), opt("Landscape", "landscape")}
	paddingOptions = []Option{opt("Small", "small"), opt("Medium", "medium"), opt("Large", "large")}
)

func builtinDefinitions() []Definition {
	return []Definition{
		{
			Kind:     KindHeroBanner,
			Label:    "Hero Banner",
			Category: "hero",
			Fields: []Field{
				text("title", "Title"),
				textarea("subtitle", "Subtitle"),
				text("bg_image", "Background Image URL"),
				text("bg_video", "Background Video URL"),
				text("cta_text", "Button Text"),
				text("cta_link", "Button Link"),
				text("secondary_cta_text", "Secondary Button Text"),
				text("secondary_cta_link", "Secondary Button Link"),
				number("overlay_opacity", "Overlay Opacity", 0, 1),
				choice("text_color", "Text Color", opt("Light", "light"), opt("Dark", "dark")),
				choice("text_alignment", "Text Alignment", alignOptions...),
				choice("height", "Height", opt("Small", "small"), opt("Medium", "medium"), opt("Large", "large"), opt("Full Screen", "full")),
			},
			Defaults: map[string]any{
				"title":           "Welcome to Our Store",
				"cta_text":        "Shop Now",
				"cta_link":        "/products",
				"overlay_opacity": 0.4,
				"text_color":      "light",
				"text_alignment":  "center",
				"height":          "large",
			},
		},
		{
			Kind:     KindAnnouncementBar,
			Label:    "Announcement Bar",
			Category: "hero",
			Fields: []Field{
				text("text", "Text"),
				text("link", "Link URL"),
				text("link_text", "Link Text"),
				text("background_color", "Background Color"),
				text("text_color", "Text Color"),
				yesNo("dismissible", "Dismissible"),
			},
			Defaults: map[string]any{
				"text":             "Free shipping on orders over $50!",
				"background_color": "#000000",
				"text_color":       "#ffffff",
				"dismissible":      true,
			},
		},
		{
			Kind:     KindProductGrid,
			Label:    "Product Grid",
			Category: "commerce",
			Fields: []Field{
				text("title", "Section Title"),
				text("subtitle", "Subtitle"),
				text("collection_handle", "Collection Handle (leave empty for all)"),
				number("limit", "Product Limit", 1, 24),
				choice("columns", "Columns", opt("2", 2), opt("3", 3), opt("4", 4), opt("5", 5)),
				yesNo("show_price", "Show Price"),
				yesNo("show_vendor", "Show Vendor"),
				yesNo("show_sale_badge", "Show Sale Badge"),
				choice("image_ratio", "Image Ratio", ratioOptions...),
			},
			Defaults: map[string]any{
				"title":           "Featured Products",
				"limit":           8,
				"columns":         4,
				"show_price":      true,
				"show_vendor":     false,
				"show_sale_badge": true,
				"image_ratio":     "square",
			},
		},
		{
			Kind:     KindProductMain,
			Label:    "Product Detail",
			Category: "commerce",
			Fields: []Field{
				choice("gallery_position", "Gallery Position", opt("Left", "left"), opt("Right", "right")),
				yesNo("show_vendor", "Show Vendor"),
				yesNo("show_sku", "Show SKU"),
				yesNo("show_quantity_selector", "Show Quantity Selector"),
			},
			Defaults: map[string]any{
				"gallery_position":       "left",
				"show_vendor":            true,
				"show_sku":               false,
				"show_quantity_selector": true,
			},
		},
		{
			Kind:     KindCollectionList,
			Label:    "Collection List",
			Category: "commerce",
			Fields: []Field{
				text("title", "Section Title"),
				text("subtitle", "Subtitle"),
				choice("columns", "Columns", opt("2", 2), opt("3", 3), opt("4", 4)),
				number("limit", "Collection Limit", 1, 12),
				yesNo("show_product_count", "Show Product Count"),
				choice("image_ratio", "Image Ratio", ratioOptions...),
				choice("card_style", "Card Style", opt("Overlay", "overlay"), opt("Below", "below")),
			},
			Defaults: map[string]any{
				"title":              "Shop by Collection",
				"columns":            3,
				"limit":              6,
				"show_product_count": true,
				"image_ratio":        "square",
				"card_style":         "overlay",
			},
		},
		{
			Kind:     KindCollectionFilters,
			Label:    "Collection Filters",
			Category: "commerce",
			Fields: []Field{
				yesNo("show_sort", "Show Sort"),
				yesNo("show_filter", "Show Filter"),
				choice("filter_type", "Filter Type", opt("Sidebar", "sidebar"), opt("Dropdown", "dropdown")),
			},
			Defaults: map[string]any{
				"show_sort":   true,
				"show_filter": false,
				"filter_type": "dropdown",
			},
		},
		{
			Kind:     KindRichText,
			Label:    "Rich Text",
			Category: "content",
			Fields: []Field{
				text("title", "Title"),
				text("heading", "Heading (alternative)"),
				textarea("content", "Content (HTML)"),
				choice("text_alignment", "Text Alignment", alignOptions...),
				choice("max_width", "Max Width", opt("Small", "small"), opt("Medium", "medium"), opt("Large", "large"), opt("Full", "full")),
				choice("padding", "Padding", paddingOptions...),
				text("background_color", "Background Color"),
				text("text_color", "Text Color"),
			},
			Defaults: map[string]any{
				"text_alignment": "center",
				"max_width":      "medium",
				"padding":        "medium",
			},
		},
		{
			Kind:     KindImageWithText,
			Label:    "Image with Text",
			Category: "content",
			Fields: []Field{
				text("image_url", "Image URL"),
				choice("image_position", "Image Position", opt("Left", "left"), opt("Right", "right")),
				choice("image_width", "Image Width", opt("Small (1/3)", "small"), opt("Medium (1/2)", "medium"), opt("Large (2/3)", "large")),
				text("title", "Title"),
				text("subtitle", "Subtitle"),
				textarea("content", "Content (HTML)"),
				text("cta_text", "Button Text"),
				text("cta_link", "Button Link"),
				text("background_color", "Background Color"),
				text("text_color", "Text Color"),
				choice("vertical_alignment", "Vertical Alignment", opt("Top", "top"), opt("Center", "center"), opt("Bottom", "bottom")),
			},
			Defaults: map[string]any{
				"image_position":     "left",
				"image_width":        "medium",
				"vertical_alignment": "center",
			},
		},
		{
			Kind:     KindNewsletter,
			Label:    "Newsletter",
			Category: "content",
			Fields: []Field{
				text("title", "Title"),
				textarea("subtitle", "Subtitle"),
				text("placeholder", "Email Placeholder"),
				text("button_text", "Button Text"),
				text("success_message", "Success Message"),
				text("background_color", "Background Color"),
				text("text_color", "Text Color"),
				choice("text_alignment", "Text Alignment", opt("Left", "left"), opt("Center", "center")),
				choice("layout", "Layout", opt("Inline", "inline"), opt("Stacked", "stacked")),
			},
			Defaults: map[string]any{
				"title":           "Join our newsletter",
				"subtitle":        "Subscribe to get special offers, free giveaways, and once-in-a-lifetime deals.",
				"placeholder":     "Enter your email",
				"button_text":     "Subscribe",
				"success_message": "Thanks for subscribing!",
				"text_alignment":  "center",
				"layout":          "inline",
			},
		},
		{
			Kind:     KindTestimonials,
			Label:    "Testimonials",
			Category: "socialProof",
			Fields: []Field{
				text("title", "Title"),
				text("subtitle", "Subtitle"),
				choice("layout", "Layout", opt("Grid", "grid"), opt("Carousel", "carousel")),
				choice("columns", "Columns", opt("2", 2), opt("3", 3)),
				yesNo("show_rating", "Show Rating"),
				text("background_color", "Background Color"),
				list("testimonials", "Testimonials", "author",
					map[string]any{"author": "Customer", "content": "Great product!", "rating": 5},
					text("author", "Author"),
					text("role", "Role"),
					textarea("content", "Quote"),
					text("avatar", "Avatar URL"),
					number("rating", "Rating (1-5)", 1, 5),
				),
			},
			Defaults: map[string]any{
				"title":       "What Our Customers Say",
				"layout":      "grid",
				"columns":     3,
				"show_rating": true,
			},
		},
		{
			Kind:     KindFooter,
			Label:    "Footer",
			Category: "layout",
			Fields: []Field{
				text("logo_url", "Logo URL"),
				text("tagline", "Tagline"),
				yesNo("show_social", "Show Social Links"),
				text("social_facebook", "Facebook URL"),
				text("social_instagram", "Instagram URL"),
				text("social_twitter", "Twitter/X URL"),
				text("social_youtube", "YouTube URL"),
				yesNo("show_payment_icons", "Show Payment Icons"),
				text("copyright_text", "Copyright Text"),
				text("background_color", "Background Color"),
				text("text_color", "Text Color"),
				list("columns", "Link Columns", "title", nil,
					text("title", "Column Title"),
					list("links", "Links", "label", nil,
						text("label", "Label"),
						text("url", "URL"),
					),
				),
			},
			Defaults: map[string]any{
				"show_social":        true,
				"show_payment_icons": true,
				"background_color":   "#111827",
				"text_color":         "#ffffff",
			},
		},
		{
			Kind:     KindAppBlock,
			Label:    "App Block",
			Category: "integrations",
			Fields: []Field{
				text("app_id", "App ID"),
				text("script_url", "Script URL"),
				text("tag_name", "Custom Element Tag Name"),
			},
			Defaults: map[string]any{},
		},
	}
}
