package posting

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func post(title, company, location, description, link, source string) *Posting {
	return &Posting{
		Title:       title,
		Company:     company,
		Location:    location,
		Description: description,
		Link:        link,
		Sources:     []string{source},
	}
}

func TestCanonicalLink(t *testing.T) {
	require.Equal(t, "https://remoteok.com/remote-jobs/123", CanonicalLink("HTTPS://RemoteOK.com/remote-jobs/123/?utm_source=feed#apply"))
	require.Equal(t, CanonicalLink("https://a.example/jobs/1?ref=x"), CanonicalLink("https://a.example/jobs/1/"))
	require.Equal(t, "", CanonicalLink("   "))
}

func TestDedupeByLinkIgnoresTrackingQuery(t *testing.T) {
	items := []*Posting{
		post("Data Analyst", "Acme", "Remote", NoDescription, "https://jobs.example/1?utm_source=remoteok", "remoteok"),
		post("Analyst, Data", "ACME Inc", "NYC", "Own the metrics stack", "https://jobs.example/1/?ref=idealist", "idealist"),
	}

	out := Dedupe(items)
	require.Len(t, out, 1)
	require.Equal(t, "Data Analyst", out[0].Title)
	require.Equal(t, "Own the metrics stack", out[0].Description)
	require.Equal(t, []string{"idealist", "remoteok"}, out[0].Sources)
}

func TestDedupeByIdentity(t *testing.T) {
	items := []*Posting{
		post("Data Analyst", "Acme", UnknownLocation, NoDescription, "https://a.example/1", "remoteok"),
		post("data analyst", "ACME", "New York", "short", "https://b.example/9", "techjobs"),
		post("Data Analyst", "Acme", "Berlin", "other", "https://c.example/3", "idealist"),
	}

	out := Dedupe(items)
	// the unknown location bridges all three into one job
	require.Len(t, out, 1)
	require.Equal(t, "New York", out[0].Location)
	require.Equal(t, "https://a.example/1", out[0].Link)
}

func TestDedupeKeepsDifferentLocations(t *testing.T) {
	items := []*Posting{
		post("Data Analyst", "Acme", "Berlin", NoDescription, "https://a.example/1", "a"),
		post("Data Analyst", "Acme", "Paris", NoDescription, "https://a.example/2", "b"),
	}

	out := Dedupe(items)
	require.Len(t, out, 2)
	require.Equal(t, []string{"https://a.example/1", "https://a.example/2"}, (&Postings{Items: out}).Links())
}

func TestDedupePreservesFirstSeenOrder(t *testing.T) {
	items := []*Posting{
		post("A", "X", "Remote", NoDescription, "https://a.example/a", "s1"),
		post("B", "X", "Remote", NoDescription, "https://a.example/b", "s1"),
		post("A", "X", "Remote", "desc", "https://a.example/a?x=1", "s2"),
		post("C", "X", "Remote", NoDescription, "https://a.example/c", "s2"),
	}

	out := Dedupe(items)
	require.Len(t, out, 3)
	require.Equal(t, "A", out[0].Title)
	require.Equal(t, "B", out[1].Title)
	require.Equal(t, "C", out[2].Title)
	require.Equal(t, "desc", out[0].Description)
}

func TestDedupeIsIdempotent(t *testing.T) {
	items := []*Posting{
		post("Data Analyst", "Acme", UnknownLocation, NoDescription, "https://a.example/1", "remoteok"),
		post("Go Dev", "Acme", "NYC", "x", "https://a.example/2", "remoteok"),
		post("Golang Engineer", "Acme", "SF", "longer text", "https://a.example/2?utm=1", "idealist"),
		post("Go Dev", "Acme", "SF", "", "https://a.example/7", "techjobs"),
		post("data analyst", "acme", "Remote", "remote role", "https://a.example/5", "techjobs"),
	}

	once := Dedupe(items)
	twice := Dedupe(once)
	require.Equal(t, once, twice)
}

func TestDedupeSurvivingLinksOrderIndependent(t *testing.T) {
	a := post("Data Analyst", "Acme", UnknownLocation, NoDescription, "https://a.example/9", "s1")
	b := post("Data Analyst", "Acme", "NYC", "x", "https://a.example/1", "s2")
	c := post("BI Analyst", "Beta", "NYC", "y", "https://a.example/9?ref=2", "s3")
	d := post("Other", "Gamma", "SF", "z", "https://a.example/4", "s4")

	forward := linkSet(Dedupe([]*Posting{a, b, c, d}))
	backward := linkSet(Dedupe([]*Posting{d, c, b, a}))
	require.Equal(t, forward, backward)
}

func TestMergeDescriptionTieBreakIsSymmetric(t *testing.T) {
	short := post("A", "X", "Remote", "short text", "https://a.example/1", "s1")
	long := post("A", "X", "Remote", "a considerably longer text", "https://a.example/1", "s2")
	trivial := post("A", "X", "Remote", NoDescription, "https://a.example/1", "s3")
	same := post("A", "X", "Remote", "other text", "https://a.example/1", "s4")

	require.Equal(t, Merge(short, long).Description, Merge(long, short).Description)
	require.Equal(t, "a considerably longer text", Merge(short, long).Description)
	require.Equal(t, "short text", Merge(trivial, short).Description)
	require.Equal(t, "short text", Merge(short, trivial).Description)
	require.Equal(t, Merge(short, same).Description, Merge(same, short).Description)
}

func TestDedupeDoesNotMutateInput(t *testing.T) {
	first := post("A", "X", "Remote", NoDescription, "https://a.example/1", "s1")
	second := post("A", "X", "Remote", "filled", "https://a.example/1", "s2")

	Dedupe([]*Posting{first, second})
	require.Equal(t, NoDescription, first.Description)
	require.Equal(t, []string{"s1"}, first.Sources)
}

func linkSet(items []*Posting) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, p := range items {
		set[CanonicalLink(p.Link)] = true
	}
	return set
}
