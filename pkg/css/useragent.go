package css

import "sync"

// userAgentCSS is the default stylesheet applied beneath author styles.
const userAgentCSS = `
html, body, div, p, h1, h2, h3, h4, h5, h6, ul, ol, li, dl, dt, dd,
section, article, header, footer, nav, main, aside, form, fieldset,
blockquote, pre, figure, figcaption, address, hr, center,
table, thead, tbody, tfoot, tr, caption, details, summary {
	display: block;
}
td, th { display: inline-block; }
head, script, style, title, meta, link, template, noscript { display: none; }
img, canvas, svg, video, input, button, select, textarea { display: inline-block; }
body { margin: 8px; }
p, ul, ol, dl, blockquote, figure { margin-top: 1em; margin-bottom: 1em; }
blockquote, figure { margin-left: 40px; margin-right: 40px; }
ul, ol { padding-left: 40px; }
dd { margin-left: 40px; }
h1 { font-size: 2em; margin-top: 0.67em; margin-bottom: 0.67em; font-weight: bold; }
h2 { font-size: 1.5em; margin-top: 0.83em; margin-bottom: 0.83em; font-weight: bold; }
h3 { font-size: 1.17em; margin-top: 1em; margin-bottom: 1em; font-weight: bold; }
h4 { margin-top: 1.33em; margin-bottom: 1.33em; font-weight: bold; }
h5 { font-size: 0.83em; margin-top: 1.67em; margin-bottom: 1.67em; font-weight: bold; }
h6 { font-size: 0.67em; margin-top: 2.33em; margin-bottom: 2.33em; font-weight: bold; }
b, strong, th { font-weight: bold; }
i, em, cite, var, dfn { font-style: italic; }
u, ins { text-decoration: underline; }
s, strike, del { text-decoration: line-through; }
a { color: #0645ad; text-decoration: underline; }
pre, code, kbd, samp, tt { font-family: monospace; }
pre { white-space: pre; }
small { font-size: smaller; }
big { font-size: larger; }
center { text-align: center; }
hr { margin-top: 0.5em; margin-bottom: 0.5em; border: 1px inset gray; }
`

var (
	uaOnce  sync.Once
	uaSheet *Stylesheet
)

// UserAgentStylesheet returns the parsed default stylesheet.
func UserAgentStylesheet() *Stylesheet {
	uaOnce.Do(func() {
		sheet, err := ParseStylesheet(userAgentCSS)
		if err != nil {
			panic("css: bad user agent stylesheet: " + err.Error())
		}
		uaSheet = sheet
	})
	return uaSheet
}
