package render

import "strings"

// VisibilityStyleID is the id of the injected force-visibility style element.
const VisibilityStyleID = "render-gateway-visibility"

// visibilityStyle builds the style element that undoes hide-until-hydrated
// patterns: animations and transitions are disabled, the page root is forced
// visible and loading overlays are hidden.
func visibilityStyle(root string, loading []string) string {
	visible := []string{"html", "body"}
	if root = cleanSelector(root); root != "" {
		visible = append(visible, root)
	}
	var hidden []string
	for _, sel := range loading {
		if sel = cleanSelector(sel); sel != "" {
			hidden = append(hidden, sel)
		}
	}

	var b strings.Builder
	b.WriteString(`<style id="` + VisibilityStyleID + `">`)
	b.WriteString("*,*::before,*::after{animation:none!important;transition:none!important}")
	b.WriteString(strings.Join(visible, ","))
	b.WriteString("{opacity:1!important;visibility:visible!important}")
	if len(hidden) > 0 {
		b.WriteString(strings.Join(hidden, ","))
		b.WriteString("{display:none!important}")
	}
	b.WriteString("</style>")
	return b.String()
}

// cleanSelector drops characters that could end the style element or
// escape the rule.
func cleanSelector(sel string) string {
	sel = strings.Map(func(r rune) rune {
		switch r {
		case '<', '{', '}', ';':
			return -1
		}
		return r
	}, sel)
	return strings.TrimSpace(sel)
}
