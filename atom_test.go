package splunkd_test

import (
	"strings"
	"testing"
	"time"

	splunkd "github.com/splunkd/splunkd"
	"github.com/splunkd/splunkd/test"
)

const jobsFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:s="http://dev.splunk.com/ns/rest" xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/">
  <title>jobs</title>
  <id>https://localhost:8089/services/search/jobs</id>
  <updated>2018-10-12T14:07:17-07:00</updated>
  <generator version="6.2.1"/>
  <author>
    <name>Splunk</name>
  </author>
  <link rel="create" href="/services/search/jobs/_new"/>
  <opensearch:totalResults>42</opensearch:totalResults>
  <entry>
    <title>search index=main</title>
    <id>https://localhost:8089/services/search/jobs/1539378437.2</id>
    <updated>2018-10-12T14:07:17-07:00</updated>
    <published>2018-10-12T14:05:00-07:00</published>
    <author>
      <name>admin</name>
    </author>
    <link rel="alternate" href="/services/search/jobs/1539378437.2"/>
    <link rel="control" href="/services/search/jobs/1539378437.2/control"/>
    <content type="text/xml">
      <s:dict>
        <s:key name="disabled">0</s:key>
      </s:dict>
    </content>
  </entry>
</feed>`

func TestReadFeed(t *testing.T) {
	f, err := splunkd.ReadFeed(strings.NewReader(jobsFeed))
	if err != nil {
		t.Fatalf("reading feed: %v", err)
	}
	test.MustBe(t, f.Title, "jobs", "title")
	test.MustBe(t, f.Author, "Splunk", "author")
	test.MustBe(t, f.GeneratorVersion, splunkd.Version{6, 2, 1}, "generator version")
	if f.ID == nil || f.ID.Path != "/services/search/jobs" {
		t.Fatalf("unexpected feed id: %v", f.ID)
	}
	if got := f.Links["create"]; got == nil || got.Path != "/services/search/jobs/_new" {
		t.Fatalf("unexpected create link: %v", got)
	}

	// only totalResults was present, the rest of the window stays zero
	test.MustBe(t, f.Pagination, splunkd.Pagination{TotalResults: 42}, "pagination")

	// no messages block at all, so Messages stays nil
	if f.Messages != nil {
		t.Fatalf("expected nil messages, got %#v", f.Messages)
	}

	if len(f.Entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(f.Entries))
	}
	e := f.Entries[0]
	test.MustBe(t, e.Title, "search index=main", "entry title")
	test.MustBe(t, e.Author, "admin", "entry author")
	exp := time.Date(2018, 10, 12, 14, 5, 0, 0, time.FixedZone("", -7*3600))
	if !e.Published.Equal(exp) {
		t.Fatalf("published = %v, expected %v", e.Published, exp)
	}
	if len(e.Links) != 2 || e.Links["control"] == nil {
		t.Fatalf("unexpected entry links: %v", e.Links)
	}
	d, ok := e.Content.(*splunkd.Dict)
	if !ok {
		t.Fatalf("entry content is not a dict: %#v", e.Content)
	}
	disabled, err := d.GetBool("Disabled")
	test.ErrNil(t, err, "Disabled")
	test.MustBe(t, disabled, false, "Disabled")
}

func TestReadFeedMessages(t *testing.T) {
	f, err := splunkd.ReadFeed(strings.NewReader(`<feed>
		<title>t</title>
		<messages></messages>
	</feed>`))
	test.ErrNil(t, err, "empty block")
	if f.Messages == nil || len(f.Messages) != 0 {
		t.Fatalf("an empty messages block should parse as a non-nil empty slice, got %#v", f.Messages)
	}

	f, err = splunkd.ReadFeed(strings.NewReader(`<feed>
		<messages>
			<msg type="WARN">quota exceeded</msg>
			<msg type="INFO">all is well</msg>
		</messages>
	</feed>`))
	test.ErrNil(t, err, "populated block")
	test.MustBe(t, f.Messages, []splunkd.Message{
		{Severity: "WARN", Text: "quota exceeded"},
		{Severity: "INFO", Text: "all is well"},
	}, "messages")
}

func TestReadFeedErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{name: "empty document", doc: `<?xml version="1.0"?>`, want: "empty document"},
		{name: "wrong root", doc: `<entry/>`, want: "entry"},
		{name: "unknown feed element", doc: `<feed><bogus/></feed>`, want: "bogus"},
		{name: "unknown entry element", doc: `<feed><entry><bogus/></entry></feed>`, want: "bogus"},
		{name: "link missing href", doc: `<feed><link rel="alternate"/></feed>`, want: "href"},
		{name: "message missing type", doc: `<feed><messages><msg>hi</msg></messages></feed>`, want: "type"},
		{name: "generator missing version", doc: `<feed><generator/></feed>`, want: "version"},
		{name: "bad totalResults", doc: `<feed><opensearch:totalResults>many</opensearch:totalResults></feed>`, want: "many"},
		{name: "truncated", doc: `<feed><title>t</title>`, want: "unexpected EOF"},
		{name: "mismatched close", doc: `<feed><title>t</entry></feed>`, want: "malformed"},
	}
	for _, tst := range tests {
		t.Run(tst.name, func(t *testing.T) {
			_, err := splunkd.ReadFeed(strings.NewReader(tst.doc))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !splunkd.IsFormatError(err) {
				t.Fatalf("expected a format error, got %v", err)
			}
			if !strings.Contains(err.Error(), tst.want) {
				t.Fatalf("error %q should mention %q", err.Error(), tst.want)
			}
		})
	}
}

func TestReadEntry(t *testing.T) {
	e, err := splunkd.ReadEntry(strings.NewReader(`<?xml version="1.0" encoding="UTF-8"?>
<entry xmlns="http://www.w3.org/2005/Atom" xmlns:s="http://dev.splunk.com/ns/rest">
  <title>main</title>
  <id>https://localhost:8089/services/data/indexes/main</id>
  <author>system</author>
  <updated>2018-10-12T14:07:17.000-07:00</updated>
  <content type="text/xml">
    <s:dict>
      <s:key name="maxDataSize">auto</s:key>
      <s:key name="eai:acl">
        <s:dict>
          <s:key name="app">search</s:key>
        </s:dict>
      </s:key>
    </s:dict>
  </content>
</entry>`))
	if err != nil {
		t.Fatalf("reading entry: %v", err)
	}
	test.MustBe(t, e.Title, "main", "title")
	// bare-text author, no nested name element
	test.MustBe(t, e.Author, "system", "author")
	d := e.Content.(*splunkd.Dict)
	size, err := d.GetString("MaxDataSize")
	test.ErrNil(t, err, "MaxDataSize")
	test.MustBe(t, size, "auto", "MaxDataSize")

	// the eai:acl key splits on the colon into nested dicts
	eai, ok := d.Get("Eai")
	if !ok {
		t.Fatalf("no Eai key: %v", d.Keys())
	}
	acl, ok := eai.(*splunkd.Dict).Get("Acl")
	if !ok {
		t.Fatalf("no Acl key: %v", eai.(*splunkd.Dict).Keys())
	}
	app, err := acl.(*splunkd.Dict).GetString("App")
	test.ErrNil(t, err, "App")
	test.MustBe(t, app, "search", "App")
}

func TestReadFeedLinkLastWins(t *testing.T) {
	f, err := splunkd.ReadFeed(strings.NewReader(`<feed>
		<link rel="alternate" href="/first"/>
		<link rel="alternate" href="/second"/>
	</feed>`))
	test.ErrNil(t, err, "reading feed")
	if got := f.Links["alternate"]; got == nil || got.Path != "/second" {
		t.Fatalf("expected the later link to win, got %v", got)
	}
}
