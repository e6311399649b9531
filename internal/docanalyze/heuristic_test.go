package docanalyze

import (
	"strings"
	"testing"
)

const structuredDoc = `Distributed Systems Primer

# Consensus
Nodes agree on a single value even when some fail. Paxos and Raft are the standard algorithms for crash faults in replicated State machines today.

` + "\n\n\n" + `Filler paragraph one that only exists to push the next heading far enough away from the previous one so both survive proximity filtering. It talks about Networks, Latency, Clocks, Quorums and other capitalized things at length, repeating itself as real prose padding does, sentence after sentence after sentence.

# Replication
Copies of data live on several nodes. Leaders order writes and followers apply the Log in sequence to stay consistent across the cluster.

` + "\n\n\n" + `Another filler paragraph that also exists to create distance between headings, wandering through Sharding, Failover, Backups and assorted capitalized Nouns so that the topic extractor has material to work with while the position filter stays satisfied.

# Bibliography
Lamport 1998. Ongaro 2014.`

func TestDetectSectionsFindsHeadings(t *testing.T) {
	outline := DetectSections(structuredDoc, 15, nil)

	var titles []string
	for _, s := range outline.Sections {
		titles = append(titles, s.Title)
	}
	joined := strings.Join(titles, "|")

	if !strings.Contains(joined, "Consensus") || !strings.Contains(joined, "Replication") {
		t.Errorf("detected titles = %v, want the content headings", titles)
	}
	if strings.Contains(joined, "Bibliography") {
		t.Errorf("detected titles = %v, non-content heading should be dropped", titles)
	}
	for i, s := range outline.Sections {
		if s.Order != i+1 {
			t.Errorf("section %d has order %d", i, s.Order)
		}
		if s.Summary == "" {
			t.Errorf("section %q has no summary", s.Title)
		}
		if len(s.KeyTopics) == 0 {
			t.Errorf("section %q has no key topics", s.Title)
		}
	}
	if outline.DocumentTitle != "Distributed Systems Primer" {
		t.Errorf("document title = %q", outline.DocumentTitle)
	}
}

func TestDetectSectionsParagraphFallback(t *testing.T) {
	// No headings at all: chunking by paragraph must still yield sections.
	para := strings.Repeat("plain prose without any heading structure to speak of. ", 4)
	content := strings.Join([]string{para, para, para, para, para, para}, "\n\n")

	outline := DetectSections(content, 15, nil)
	if len(outline.Sections) < 3 {
		t.Fatalf("got %d sections from fallback, want at least 3", len(outline.Sections))
	}
	for _, s := range outline.Sections {
		if s.Confidence != 0.5 {
			t.Errorf("fallback section confidence = %v, want 0.5", s.Confidence)
		}
	}
}

func TestDetectSectionsCapsCount(t *testing.T) {
	outline := DetectSections(structuredDoc, 1, nil)
	if len(outline.Sections) != 1 {
		t.Errorf("got %d sections, want capped 1", len(outline.Sections))
	}
}

func TestDocumentType(t *testing.T) {
	cases := map[string]string{
		"Chapter 1 of this textbook": "textbook",
		"lecture slides week 3":      "lecture",
		"user manual for the device": "manual",
		"abstract: we present":       "article",
		"random jottings":            "notes",
	}
	for content, want := range cases {
		if got := documentType(content); got != want {
			t.Errorf("documentType(%q) = %q, want %q", content, got, want)
		}
	}
}
