package domain

import "testing"

func TestFormatYear(t *testing.T) {
	tests := map[int]string{
		-500: "500 BC",
		43:   "AD 43",
		0:    "AD 0",
	}
	for in, want := range tests {
		if got := FormatYear(in); got != want {
			t.Errorf("FormatYear(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestSite_DateRange(t *testing.T) {
	s := &Site{PeriodStart: IntPtr(-753), PeriodEnd: IntPtr(476)}
	if got := s.DateRange(); got != "753 BC to AD 476" {
		t.Errorf("unexpected range %q", got)
	}

	s = &Site{PeriodStart: IntPtr(-3000)}
	if got := s.DateRange(); got != "from 3000 BC" {
		t.Errorf("unexpected range %q", got)
	}

	s = &Site{}
	if got := s.DateRange(); got != "" {
		t.Errorf("expected empty range, got %q", got)
	}
}

func TestSiteFromResult(t *testing.T) {
	r := SearchResult{SiteID: "x1", Name: "Knossos", CollectionID: "pleiades", Lat: 35.29, Lon: 25.16}
	s := SiteFromResult(r)
	if s.ID != "x1" || s.Source != "pleiades" || s.Name != "Knossos" {
		t.Errorf("unexpected site %+v", s)
	}
	m := s.Marker()
	if m.Lat != 35.29 || m.Lon != 25.16 {
		t.Errorf("unexpected marker %+v", m)
	}
}

func TestClassificationResult_HighlightLimit(t *testing.T) {
	if (ClassificationResult{IsSuperlative: true}).HighlightLimit() != 3 {
		t.Error("superlative should highlight 3")
	}
	if (ClassificationResult{}).HighlightLimit() != 20 {
		t.Error("default should highlight 20")
	}
}

func TestChatRequest_LastAssistantTurnFromHistory(t *testing.T) {
	r := &ChatRequest{History: []ChatMessage{
		{Role: RoleUser, Content: "tell me about Stonehenge"},
		{Role: RoleAssistant, Content: "Stonehenge is a henge"},
		{Role: RoleUser, Content: "how old is it"},
	}}
	if got := r.LastAssistantTurn(); got != "Stonehenge is a henge" {
		t.Errorf("unexpected turn %q", got)
	}
	if (&ChatRequest{}).LastAssistantTurn() != "" {
		t.Error("expected empty turn")
	}
}
