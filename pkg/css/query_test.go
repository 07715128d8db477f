package css

import "testing"

func TestQuerySelectorAll(t *testing.T) {
	doc := parseDoc(t, `<div id="root"><p class="item">a</p><div><p class="item">b</p></div><span class="item">c</span></div><p class="item">outside</p>`)
	root := doc.Root.ElementByID("root")

	items, err := QuerySelectorAll(root, ".item")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 matches under root, got %d", len(items))
	}
	var texts string
	for _, n := range items {
		texts += n.TextContent()
	}
	if texts != "abc" {
		t.Errorf("expected document order abc, got %q", texts)
	}

	group, err := QuerySelectorAll(root, "span, div")
	if err != nil {
		t.Fatal(err)
	}
	if len(group) != 2 || group[0].TagName != "div" || group[1].TagName != "span" {
		t.Errorf("expected div then span, got %d nodes", len(group))
	}
}

func TestQuerySelectorAll_NoMatches(t *testing.T) {
	doc := parseDoc(t, `<div><p>x</p></div>`)
	got, err := QuerySelectorAll(doc.Root, ".missing")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected an empty non-nil slice, got %#v", got)
	}
}

func TestQuerySelector(t *testing.T) {
	doc := parseDoc(t, `<section><h1 id="t">Title</h1></section>`)
	n, err := QuerySelector(doc.Root, "section > #t")
	if err != nil {
		t.Fatal(err)
	}
	if n == nil || n.TagName != "h1" {
		t.Fatalf("expected the h1, got %v", n)
	}
	if _, err := QuerySelector(doc.Root, "!!"); err == nil {
		t.Error("expected an error for an invalid selector")
	}
}
