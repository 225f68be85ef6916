package models

// Choice is one selectable value with its display label.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Options lists every supported request option and its default.
type Options struct {
	PostTypes       []Choice `json:"post_types"`
	Lengths         []Choice `json:"lengths"`
	Languages       []Choice `json:"languages"`
	DefaultPostType string   `json:"default_post_type"`
	DefaultLength   string   `json:"default_length"`
	DefaultLanguage string   `json:"default_language"`
}

// AvailableOptions returns the options in display order.
func AvailableOptions() Options {
	opts := Options{
		DefaultPostType: string(DefaultPostType),
		DefaultLength:   string(DefaultLength),
		DefaultLanguage: string(DefaultLanguage),
	}
	for _, p := range PostTypes {
		opts.PostTypes = append(opts.PostTypes, Choice{Value: string(p), Label: string(p)})
	}
	for _, l := range Lengths {
		opts.Lengths = append(opts.Lengths, Choice{Value: string(l), Label: l.Label()})
	}
	for _, l := range Languages {
		opts.Languages = append(opts.Languages, Choice{Value: string(l), Label: string(l)})
	}
	return opts
}
