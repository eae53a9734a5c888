package reader

// presets are SelectorReader configurations for common job boards. Any field
// can be overridden per source through reader_options.
var presets = map[string]SelectorReader{
	"greenhouse": {
		Item: ".job-post",
		Link: "a",
	},
	"greenhouse-standalone": {
		Item: ".opening",
		Link: "a",
	},
	"greenhouse-embedded": {
		Frame: "#grnhse_iframe",
		Item:  ".opening",
		Link:  "a",
	},
	"lever": {
		Item: ".posting",
		Link: "a",
	},
	"bamboo": {
		Container: "main",
		Item:      "li",
		Link:      "a",
	},
	"workable": {
		Container: "#jobs",
		Item:      `li[data-ui="job"]`,
		Link:      "a",
	},
	"ashby": {
		Container: "#root .ashby-job-posting-brief-list",
		Item:      "a",
	},
	"ashby-embedded": {
		Frame:     "#ashby_embed_iframe",
		Container: "#root .ashby-job-posting-brief-list",
		Item:      "a",
	},
	"applytojob": {
		Container: ".jobs-list",
		Item:      "li.list-group-item",
		Link:      "a",
	},
	"smartrecruiters": {
		Container: ".openings-body",
		Item:      "li.opening-job",
		Link:      "a",
	},
}
