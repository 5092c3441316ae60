package hunt

import (
	"testing"

	"github.com/panbanda/deadhunt/pkg/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func refNames(refs []Reference, d Detector) []string {
	var names []string
	for _, r := range refs {
		if r.Detector == d {
			names = append(names, r.Name)
		}
	}
	return names
}

func TestExtractReferences_Imports(t *testing.T) {
	code := `
import Default, { original as renamed, plain } from './a';
import * as Utils from './utils';
import type { Props } from './types';
import './side-effect';
`
	refs := ExtractReferences(parseSource(t, parser.LangTypeScript, code))
	imports := refNames(refs, DetectorImport)

	assert.ElementsMatch(t, []string{"Default", "original", "plain", "Utils", "Props"}, imports)
	assert.NotContains(t, imports, "renamed", "named imports match on the exported name")
}

func TestExtractReferences_Markup(t *testing.T) {
	code := `
const page = (
  <Layout.Header.Title>
    <Button variant="primary" onClick={handleClick} />
    <svg:rect />
    <div>{label}</div>
  </Layout.Header.Title>
);
`
	refs := ExtractReferences(parseSource(t, parser.LangJavaScript, code))

	markup := refNames(refs, DetectorMarkup)
	assert.Contains(t, markup, "Layout")
	assert.Contains(t, markup, "Button")
	assert.Contains(t, markup, "div")
	assert.NotContains(t, markup, "Title")
	assert.NotContains(t, markup, "rect")

	idents := refNames(refs, DetectorIdentifier)
	assert.Contains(t, idents, "handleClick", "attribute values are ordinary code")
	assert.Contains(t, idents, "label")
	assert.Contains(t, idents, "page")
	assert.NotContains(t, idents, "Button", "tag names are markup tokens")
	assert.NotContains(t, idents, "Layout")
	assert.NotContains(t, idents, "variant", "attribute names are markup tokens")
}

func TestExtractReferences_Identifiers(t *testing.T) {
	code := `
const result = helper(config.value);
const obj = { shorthand };
outer: for (;;) { break outer; }
`
	idents := refNames(ExtractReferences(parseSource(t, parser.LangTypeScript, code)), DetectorIdentifier)

	for _, name := range []string{"result", "helper", "config", "value", "obj", "shorthand", "outer"} {
		assert.Contains(t, idents, name)
	}
}

func TestExtractReferences_TypeReferences(t *testing.T) {
	code := `
interface Local { id: string }
type Alias = Base;
function render(p: Props): NS.Qualified<Inner> { return null as any }
`
	types := refNames(ExtractReferences(parseSource(t, parser.LangTypeScript, code)), DetectorTypeReference)

	for _, name := range []string{"Base", "Props", "Qualified", "Inner"} {
		assert.Contains(t, types, name)
	}
	assert.NotContains(t, types, "Local", "declared names are not references")
	assert.NotContains(t, types, "Alias")
	assert.NotContains(t, types, "NS", "only the rightmost segment of a qualified type counts")
}

func TestExtractReferences_Dedup(t *testing.T) {
	code := "helper(); helper(); helper();"
	refs := ExtractReferences(parseSource(t, parser.LangTypeScript, code))
	assert.Equal(t, []string{"helper"}, refNames(refs, DetectorIdentifier))
	require.NotEmpty(t, refs)
	assert.Equal(t, uint32(1), refs[0].Line)
}

func TestParseDetectorSet(t *testing.T) {
	set, err := ParseDetectorSet([]string{"import,jsx"})
	require.NoError(t, err)
	assert.True(t, set.Has(DetectorImport))
	assert.True(t, set.Has(DetectorMarkup))
	assert.False(t, set.Has(DetectorIdentifier))
	assert.Equal(t, "import,markup", set.String())

	all, err := ParseDetectorSet(nil)
	require.NoError(t, err)
	assert.Equal(t, AllDetectorSet(), all)

	_, err = ParseDetectorSet([]string{"regex"})
	assert.Error(t, err)
}

func TestResolverHonoursDetectors(t *testing.T) {
	reg := NewRegistry(AllCategorySet())
	reg.Register(Declaration{Name: "Button", Category: CategoryComponent}, "a.tsx")
	reg.Register(Declaration{Name: "helper", Category: CategoryFunction}, "a.tsx")

	refs := []Reference{
		{Name: "Button", Detector: DetectorMarkup},
		{Name: "helper", Detector: DetectorIdentifier},
		{Name: "missing", Detector: DetectorIdentifier},
	}

	marked := NewResolver(reg, NewDetectorSet(DetectorMarkup)).Resolve("b.tsx", 0, refs)
	assert.Equal(t, 1, marked)

	button, _ := reg.Lookup("Button")
	helper, _ := reg.Lookup("helper")
	assert.True(t, button.Used)
	assert.False(t, helper.Used)
}
