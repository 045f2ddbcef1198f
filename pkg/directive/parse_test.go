package directive

import (
	"encoding/json"
	"sync"
	"testing"
)

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func TestParse(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		wantTree string
		wantOpts string
	}{
		{name: "empty", raw: "", wantTree: `{}`, wantOpts: `{}`},
		{name: "only commas", raw: ",,,", wantTree: `{}`, wantOpts: `{}`},
		{name: "commas and spaces", raw: " , ,, ", wantTree: `{}`, wantOpts: `{}`},
		{name: "single leaf", raw: "author", wantTree: `{"author":true}`, wantOpts: `{}`},
		{name: "nested path", raw: "comments.author", wantTree: `{"comments":{"author":true}}`, wantOpts: `{}`},
		{
			name:     "merge union",
			raw:      "comments.author,comments.likes",
			wantTree: `{"comments":{"author":true,"likes":true}}`,
			wantOpts: `{}`,
		},
		{name: "leaf promoted", raw: "comments,comments.author", wantTree: `{"comments":{"author":true}}`, wantOpts: `{}`},
		{name: "leaf promoted reversed", raw: "comments.author,comments", wantTree: `{"comments":{"author":true}}`, wantOpts: `{}`},
		{
			name:     "option with arguments",
			raw:      "comments:limit[5|asc]",
			wantTree: `{"comments":true}`,
			wantOpts: `{"comments":{"limit":[["5","asc"]]}}`,
		},
		{
			name:     "multiple clauses",
			raw:      "comments:limit[5]:sort[asc]",
			wantTree: `{"comments":true}`,
			wantOpts: `{"comments":{"limit":[["5"]],"sort":[["asc"]]}}`,
		},
		{
			name:     "repeated option appends",
			raw:      "comments:limit[5],comments:limit[10]",
			wantTree: `{"comments":true}`,
			wantOpts: `{"comments":{"limit":[["5"],["10"]]}}`,
		},
		{
			name:     "nested option path",
			raw:      "author,comments.author:limit[5|asc],comments.likes",
			wantTree: `{"author":true,"comments":{"author":true,"likes":true}}`,
			wantOpts: `{"comments.author":{"limit":[["5","asc"]]}}`,
		},
		{name: "empty item in the middle", raw: "a,,b", wantTree: `{"a":true,"b":true}`, wantOpts: `{}`},
		{name: "surrounding dots", raw: ".author.", wantTree: `{"author":true}`, wantOpts: `{}`},
		{name: "repeated dots", raw: "a..b", wantTree: `{"a":{"b":true}}`, wantOpts: `{}`},
		{
			name:     "whitespace around keys",
			raw:      " author , comments . likes ",
			wantTree: `{"author":true,"comments":{"likes":true}}`,
			wantOpts: `{}`,
		},
		{
			name:     "dot inside option clause splits the path",
			raw:      "comments:sort[created.at]",
			wantTree: `{"comments:sort[created":{"at]":true}}`,
			wantOpts: `{}`,
		},
		{
			name:     "dot after option clause splits the path",
			raw:      "comments:limit[5].author",
			wantTree: `{"comments:limit[5]":{"author":true}}`,
			wantOpts: `{}`,
		},
		{name: "option without args", raw: "comments:limit", wantTree: `{"comments":true}`, wantOpts: `{"comments":{"limit":[[]]}}`},
		{name: "empty brackets", raw: "comments:limit[]", wantTree: `{"comments":true}`, wantOpts: `{"comments":{"limit":[[""]]}}`},
		{name: "dangling colon", raw: "comments:", wantTree: `{"comments":true}`, wantOpts: `{"comments":{"":[[]]}}`},
		{name: "stray colons", raw: "comments::limit[2]::", wantTree: `{"comments":true}`, wantOpts: `{"comments":{"limit":[["2"]]}}`},
		{name: "empty clause between colons", raw: "comments:limit[2]::sort", wantTree: `{"comments":true}`, wantOpts: `{"comments":{"limit":[["2"]],"":[[]],"sort":[[]]}}`},
		{name: "arguments kept verbatim", raw: "x:limit[5| asc]", wantTree: `{"x":true}`, wantOpts: `{"x":{"limit":[["5"," asc"]]}}`},
		{name: "missing key", raw: ":limit[5]", wantTree: `{}`, wantOpts: `{}`},
		{name: "missing nested key", raw: "a.:limit[5]", wantTree: `{"a":true}`, wantOpts: `{}`},
		{name: "unbalanced bracket", raw: "comments:limit[5", wantTree: `{"comments":true}`, wantOpts: `{"comments":{"limit":[["5"]]}}`},
		{name: "extra closing brackets", raw: "comments:limit[5]]]", wantTree: `{"comments":true}`, wantOpts: `{"comments":{"limit":[["5"]]}}`},
		{
			name:     "deep merge keeps siblings",
			raw:      "a.b.c,a.b.d,a.e,a",
			wantTree: `{"a":{"b":{"c":true,"d":true},"e":true}}`,
			wantOpts: `{}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tree, opts := Parse(tc.raw)
			if got := mustJSON(t, tree); got != tc.wantTree {
				t.Fatalf("tree=%s want=%s", got, tc.wantTree)
			}
			if got := mustJSON(t, opts); got != tc.wantOpts {
				t.Fatalf("options=%s want=%s", got, tc.wantOpts)
			}
		})
	}
}

func TestParse_LeafPromotionIsOrderIndependent(t *testing.T) {
	a, _ := Parse("comments,comments.author")
	b, _ := Parse("comments.author,comments")
	if !a.Equal(b) {
		t.Fatalf("trees differ: %s vs %s", mustJSON(t, a), mustJSON(t, b))
	}
}

func TestParse_Deterministic(t *testing.T) {
	raw := "author,comments.author:limit[5|asc]:sort[desc],comments.likes,tags:limit[3]"
	t1, o1 := Parse(raw)
	t2, o2 := Parse(raw)
	if mustJSON(t, t1) != mustJSON(t, t2) || mustJSON(t, o1) != mustJSON(t, o2) {
		t.Fatalf("parse is not deterministic")
	}
	if t1 == t2 || o1 == o2 {
		t.Fatalf("expected fresh allocations per call")
	}
}

func TestParse_Concurrent(t *testing.T) {
	raw := "a.b:limit[1],a.c,d"
	want, _ := Parse(raw)
	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, _ := Parse(raw)
			if !got.Equal(want) {
				errs <- "mismatch"
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Fatalf("concurrent parse: %s", e)
	}
}

func TestTreeHas(t *testing.T) {
	tree, _ := Parse("comments.author,likes")
	cases := map[string]bool{
		"comments":        true,
		"comments.author": true,
		"likes":           true,
		"comments.likes":  false,
		"likes.count":     false,
		"":                false,
		"comments.":       false,
		".comments":       false,
		"missing":         false,
	}
	for path, want := range cases {
		if got := HasPath(tree, path); got != want {
			t.Fatalf("HasPath(%q)=%v want=%v", path, got, want)
		}
	}
	var nilTree *Tree
	if nilTree.Has("a") {
		t.Fatalf("nil tree should not have paths")
	}
}

func TestTreeStringRoundTrip(t *testing.T) {
	tree, _ := Parse("comments.author:limit[5],likes,comments.likes")
	s := tree.String()
	if s != "comments.author,comments.likes,likes" {
		t.Fatalf("String()=%q", s)
	}
	again, _ := Parse(s)
	if !again.Equal(tree) {
		t.Fatalf("round trip mismatch: %s vs %s", mustJSON(t, again), mustJSON(t, tree))
	}
}

func TestTreeMergeDoesNotModifyInputs(t *testing.T) {
	a, _ := Parse("comments")
	b, _ := Parse("comments.author,tags")
	merged := a.Merge(b)

	if got := mustJSON(t, merged); got != `{"comments":{"author":true},"tags":true}` {
		t.Fatalf("merged=%s", got)
	}
	if got := mustJSON(t, a); got != `{"comments":true}` {
		t.Fatalf("a modified: %s", got)
	}
	if got := mustJSON(t, b); got != `{"comments":{"author":true},"tags":true}` {
		t.Fatalf("b modified: %s", got)
	}

	var nilTree *Tree
	if got := mustJSON(t, nilTree.Merge(b)); got != mustJSON(t, b) {
		t.Fatalf("nil merge=%s", got)
	}
}

func TestBranchOfEmptyTreeIsLeaf(t *testing.T) {
	if !Branch(nil).IsLeaf() || !Branch(NewTree()).IsLeaf() {
		t.Fatalf("empty branch should be a leaf")
	}
	if Leaf().Children() != nil {
		t.Fatalf("leaf has no children")
	}
}
