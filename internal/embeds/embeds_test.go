package embeds

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-postembed/internal/examples"
	"github.com/goliatone/go-postembed/internal/substitute"
	"github.com/goliatone/go-postembed/pkg/interfaces"
)

type stubSocialStore struct {
	mu       sync.Mutex
	metadata map[string]json.RawMessage
	err      error
	calls    []string
}

func (s *stubSocialStore) GetMetadataByID(_ context.Context, id string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, id)
	if s.err != nil {
		return nil, s.err
	}
	return s.metadata[id], nil
}

type failingExampleStore struct {
	err error
}

func (s failingExampleStore) GetByID(context.Context, int64) (*interfaces.ExampleRecord, error) {
	return nil, s.err
}

type nilExampleStore struct{}

func (nilExampleStore) GetByID(context.Context, int64) (*interfaces.ExampleRecord, error) {
	return nil, nil
}

func TestParseExampleIDs(t *testing.T) {
	cases := []struct {
		name      string
		match     string
		want      []int64
		malformed bool
	}{
		{name: "ordered", match: "<Examples names=[3,1]/>", want: []int64{3, 1}},
		{name: "single", match: `<Examples names=[42] />`, want: []int64{42}},
		{name: "empty list", match: "<Examples names=[]/>", want: []int64{}},
		{name: "leading space parsed leniently", match: "<Examples names=[1, 2]/>", want: []int64{1, 2}},
		{name: "trailing junk ignored", match: "<Examples names=[4x]/>", want: []int64{4}},
		{name: "missing names", match: "<Examples/>", malformed: true},
		{name: "non numeric", match: "<Examples names=[a,1]/>", malformed: true},
		{name: "blank token", match: "<Examples names=[1,,2]/>", malformed: true},
		{name: "largest id", match: "<Examples names=[9223372036854775807]/>", want: []int64{9223372036854775807}},
		{name: "id overflows int64", match: "<Examples names=[1,9223372036854775808]/>", malformed: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseExampleIDs(tc.match)
			if tc.malformed {
				if !IsMalformedDirective(err) {
					t.Fatalf("expected malformed directive error, got %v", err)
				}
				var directiveErr *DirectiveError
				if !errors.As(err, &directiveErr) || directiveErr.Directive != ExampleSetDirective {
					t.Fatalf("expected DirectiveError for examples, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseExampleIDs() error = %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("expected %v, got %v", tc.want, got)
				}
			}
		})
	}
}

func TestExampleSetResolver_PreservesDirectiveOrder(t *testing.T) {
	store := examples.NewMemoryRepository(
		&interfaces.ExampleRecord{ID: 1, Title: "one", Code: "a"},
		&interfaces.ExampleRecord{ID: 3, Title: "three", Code: "c"},
	)
	resolver := NewExampleSetResolver(store)

	out, err := resolver.Resolve(context.Background(), "<Examples names=[3,1]/>")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	payload := extractExamplesPayload(t, out)
	var records []*interfaces.ExampleRecord
	if err := json.Unmarshal([]byte(payload), &records); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if len(records) != 2 || records[0].ID != 3 || records[1].ID != 1 {
		t.Fatalf("expected records [3,1], got %s", payload)
	}
}

func TestExampleSetResolver_MissingRecordsAreNull(t *testing.T) {
	store := examples.NewMemoryRepository(&interfaces.ExampleRecord{ID: 1, Title: "one", Code: "a"})
	resolver := NewExampleSetResolver(store)

	out, err := resolver.Resolve(context.Background(), "<Examples names=[1,99]/>")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	payload := extractExamplesPayload(t, out)
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if len(raw) != 2 || string(raw[1]) != "null" {
		t.Fatalf("expected second entry null, got %s", payload)
	}

	out, err = NewExampleSetResolver(nilExampleStore{}).Resolve(context.Background(), "<Examples names=[5]/>")
	if err != nil {
		t.Fatalf("Resolve() with nil record error = %v", err)
	}
	if out != "<ExampleSetEmbed examples={[null]} />" {
		t.Fatalf("unexpected markup %q", out)
	}
}

func TestExampleSetResolver_PropagatesStoreFailure(t *testing.T) {
	boom := errors.New("connection refused")
	resolver := NewExampleSetResolver(failingExampleStore{err: boom})

	_, err := resolver.Resolve(context.Background(), "<Examples names=[1]/>")
	if !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
	if IsMalformedDirective(err) {
		t.Fatalf("store failure must not be reported as malformed")
	}
}

func TestExampleSetResolver_EmptyListRendersEmptyArray(t *testing.T) {
	resolver := NewExampleSetResolver(examples.NewMemoryRepository())
	out, err := resolver.Resolve(context.Background(), "<Examples names=[]/>")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if out != "<ExampleSetEmbed examples={[]} />" {
		t.Fatalf("unexpected markup %q", out)
	}
}

func TestExampleSetResolver_PatternBoundaries(t *testing.T) {
	pattern := NewExampleSetResolver(nil).Pattern()
	text := `<p>a</p><Examples names=[1]/><ExamplesList names=[2]/><Examples names=[3] />`
	matches := pattern.FindAllString(text, -1)
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %v", matches)
	}
	if matches[0] != "<Examples names=[1]/>" || matches[1] != "<Examples names=[3] />" {
		t.Fatalf("unexpected matches %v", matches)
	}
}

func TestSocialPostPattern(t *testing.T) {
	pattern := SocialPostPattern()
	cases := []struct {
		text  string
		match bool
	}{
		{text: "<p>https://twitter.com/user/status/123456?s=09</p>", match: true},
		{text: "<p>https://x.com/user/status/123456</p>", match: true},
		{text: "<p>https://mobile.twitter.com/user/statuses/99/</p>", match: true},
		{text: "<p>see https://twitter.com/user/status/1</p>", match: false},
		{text: "<p>https://example.com/user/status/1</p>", match: false},
		{text: "<p>https://xtwitter.com/user/status/1</p>", match: false},
		{text: `<p><a href="https://twitter.com/u/status/1">x</a></p>`, match: false},
	}
	for _, tc := range cases {
		if got := pattern.MatchString(tc.text); got != tc.match {
			t.Fatalf("MatchString(%q) = %v, want %v", tc.text, got, tc.match)
		}
	}

	custom := SocialPostPattern("social.example")
	if !custom.MatchString("<p>https://social.example/a/status/7</p>") {
		t.Fatalf("expected custom domain to match")
	}
	if custom.MatchString("<p>https://twitter.com/a/status/7</p>") {
		t.Fatalf("expected default domains to be replaced")
	}
}

func TestSocialEmbedResolver_Resolve(t *testing.T) {
	store := &stubSocialStore{metadata: map[string]json.RawMessage{
		"123456": json.RawMessage(`{ "text": "use ${x} and ` + "`code`" + ` \n" }`),
	}}
	resolver := NewSocialEmbedResolver(store)

	out, err := resolver.Resolve(context.Background(), "<p>https://twitter.com/user/status/123456?s=09</p>")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := "<SocialPostEmbed id=\"123456\" metadata={`{\"text\":\"use \\${x} and \\`code\\` \\\\n\"}`} />"
	if out != want {
		t.Fatalf("unexpected markup\n got: %s\nwant: %s", out, want)
	}
	if len(store.calls) != 1 || store.calls[0] != "123456" {
		t.Fatalf("expected lookup for 123456, got %v", store.calls)
	}
}

func TestSocialEmbedResolver_Errors(t *testing.T) {
	boom := errors.New("rate limited")
	resolver := NewSocialEmbedResolver(&stubSocialStore{err: boom})

	if _, err := resolver.Resolve(context.Background(), "<p>https://x.com/u/status/1</p>"); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
	if _, err := resolver.Resolve(context.Background(), "<p>https://x.com/u/post</p>"); !IsMalformedDirective(err) {
		t.Fatalf("expected malformed directive, got %v", err)
	}

	invalid := NewSocialEmbedResolver(&stubSocialStore{metadata: map[string]json.RawMessage{"1": json.RawMessage("{")}})
	if _, err := invalid.Resolve(context.Background(), "<p>https://x.com/u/status/1</p>"); err == nil {
		t.Fatalf("expected invalid metadata error")
	}
}

func TestResolversThroughSubstitutor(t *testing.T) {
	store := examples.NewMemoryRepository(
		&interfaces.ExampleRecord{ID: 1, Title: "one", Code: "a"},
		&interfaces.ExampleRecord{ID: 2, Title: "two", Code: "b"},
	)
	social := &stubSocialStore{metadata: map[string]json.RawMessage{"7": json.RawMessage(`{"id":"7"}`)}}
	sub := substitute.New()
	ctx := context.Background()

	text := "<h1>t</h1>\n<Examples names=[2]/>\n<p>https://x.com/u/status/7</p>\n<Examples names=[1]/>\n"
	out, err := sub.Apply(ctx, text, NewExampleSetResolver(store))
	if err != nil {
		t.Fatalf("Apply(examples) error = %v", err)
	}
	out, err = sub.Apply(ctx, out, NewSocialEmbedResolver(social))
	if err != nil {
		t.Fatalf("Apply(social) error = %v", err)
	}

	first := strings.Index(out, `"title":"two"`)
	second := strings.Index(out, `"title":"one"`)
	embed := strings.Index(out, `<SocialPostEmbed id="7"`)
	if first < 0 || second < 0 || embed < 0 || !(first < embed && embed < second) {
		t.Fatalf("unexpected output ordering:\n%s", out)
	}
	if !strings.HasPrefix(out, "<h1>t</h1>\n") {
		t.Fatalf("expected surrounding text preserved, got %q", out)
	}
}

func extractExamplesPayload(t *testing.T, markup string) string {
	t.Helper()
	const prefix = "<ExampleSetEmbed examples={"
	const suffix = "} />"
	if !strings.HasPrefix(markup, prefix) || !strings.HasSuffix(markup, suffix) {
		t.Fatalf("unexpected markup %q", markup)
	}
	return strings.TrimSuffix(strings.TrimPrefix(markup, prefix), suffix)
}
