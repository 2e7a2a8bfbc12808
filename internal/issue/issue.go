// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	SpecNotFoundId Id = iota + 1
	SpecParseErrorId
	RemoteFetchFailedId
	RateLimitedId
	IndexFormatErrorId
	WriteFailedId
	ConfigLoadFailedId
	MissingBuildContextId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // documentation about the failing concern
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue as terminal Markdown using the glamour style
// at stylePath ("dark", "light", "notty", ...).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
		for _, link := range i.extLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	specNotFoundIssue = &Issue{
		id: SpecNotFoundId,
		mdMsg: `
# Specification not found!

The source specification file could not be read.

## Things you can try:
- Check the ` + "`source`" + ` setting:
~~~
$ specpub config show
~~~

- Point specpub at the right file:
~~~
$ specpub publish --source api/openapi.yaml
~~~`,
	}

	specParseErrorIssue = &Issue{
		id: SpecParseErrorId,
		mdMsg: `
# Specification could not be parsed!

The source file is not a YAML or JSON document with a mapping at its root.

## Things you can try:
- Validate the document with your OpenAPI tooling
- Make sure the file is not empty
- Check the line reported above for indentation mistakes`,
	}

	remoteFetchFailedIssue = &Issue{
		id: RemoteFetchFailedId,
		mdMsg: `
# Could not fetch the published version index!

Release builds merge into the version index stored on the distribution branch.
The hosting API did not return it.

## Things you can try:
- Make sure the distribution branch exists and already contains the index file
- Check the ` + "`repository`" + ` and ` + "`dist_branch`" + ` settings
- Provide a token for private repositories:
~~~
$ export GITHUB_TOKEN=...
~~~`,
		extLinks: []HttpLink{"https://docs.github.com/en/rest/repos/contents"},
	}

	rateLimitedIssue = &Issue{
		id: RateLimitedId,
		mdMsg: `
# Hosting API rate limit exceeded!

Unauthenticated requests share a small hourly quota.

## Things you can try:
- Set GITHUB_TOKEN so requests are authenticated
- Retry after the reset time shown above`,
		extLinks: []HttpLink{"https://docs.github.com/en/rest/using-the-rest-api/rate-limits-for-the-rest-api"},
	}

	indexFormatErrorIssue = &Issue{
		id: IndexFormatErrorId,
		mdMsg: `
# The version index is malformed!

The index must be a JSON object mapping each version label to an object
with ` + "`spec`" + ` and ` + "`source`" + ` strings.

## Things you can try:
- Inspect the published index:
~~~
$ specpub index show
~~~

- Repair a local copy and push it to the distribution branch:
~~~
$ specpub index merge gh-pages/versions.json v1.0.0
~~~`,
	}

	writeFailedIssue = &Issue{
		id: WriteFailedId,
		mdMsg: `
# Could not write a published file!

specpub never creates the target directory. Files written before the
failure are left in place.

## Things you can try:
- Check out the distribution branch into the target directory first
- Check the ` + "`target_dir`" + ` setting and directory permissions`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

There was an error loading your specpub configuration.

## Things you can try:
- Check the config file syntax (CUE format)
- Print a valid starting point:
~~~
$ specpub config dump
~~~

- Remove unknown fields; only documented keys are accepted`,
	}

	missingBuildContextIssue = &Issue{
		id: MissingBuildContextId,
		mdMsg: `
# Build context is incomplete!

Publishing needs the triggering reference, and depending on the channel
the commit hash or the hosting repository. They normally come from the CI
environment (GITHUB_REF, GITHUB_SHA, GITHUB_REPOSITORY).

## Things you can try:
- Pass them explicitly:
~~~
$ specpub publish --ref refs/tags/v1.0.0 --repository acme/api
~~~`,
	}

	issues = map[Id]*Issue{
		specNotFoundIssue.Id():        specNotFoundIssue,
		specParseErrorIssue.Id():      specParseErrorIssue,
		remoteFetchFailedIssue.Id():   remoteFetchFailedIssue,
		rateLimitedIssue.Id():         rateLimitedIssue,
		indexFormatErrorIssue.Id():    indexFormatErrorIssue,
		writeFailedIssue.Id():         writeFailedIssue,
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		missingBuildContextIssue.Id(): missingBuildContextIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
