package collection

// Paging is what the collection knows about the dataset's extent, recomputed
// after every round trip.
type Paging struct {
	Offset         int  `json:"offset"`
	TotalResults   int  `json:"total_results"`
	TotalKnown     bool `json:"total_known"`
	HasMore        bool `json:"has_more"`
	LastFetchSize  int  `json:"last_fetch_size"`
	LastFetchCount int  `json:"last_fetch_count"`
}

// Total returns the total number of records and whether it is known.
func (p Paging) Total() (int, bool) {
	return p.TotalResults, p.TotalKnown
}

func initialPaging() Paging {
	return Paging{HasMore: true}
}

// update derives the extent from a response. Services differ in what they
// report, so the rules fall back from an explicit total, to an explicit
// hasMore flag, to inferring the end from a short page.
func (p *Paging) update(req FetchRequest, page *Page) {
	count := page.Count
	if count == 0 {
		count = len(page.Records)
	}
	size := req.Limit
	if page.Limit > 0 {
		size = page.Limit
	}

	p.Offset = page.Offset
	p.LastFetchSize = size
	p.LastFetchCount = count
	end := page.Offset + count

	switch {
	case page.TotalResults != nil:
		p.TotalResults = *page.TotalResults
		p.TotalKnown = true
		p.HasMore = end < p.TotalResults
		if page.HasMore != nil {
			p.HasMore = *page.HasMore
		}
	case page.HasMore != nil:
		p.HasMore = *page.HasMore
		if !p.HasMore {
			p.TotalResults = end
			p.TotalKnown = true
		}
	default:
		p.HasMore = count >= size
		if !p.HasMore {
			p.TotalResults = end
			p.TotalKnown = true
		}
	}
}

// adjust shifts a known total after a local insert or removal.
func (p *Paging) adjust(delta int) {
	if !p.TotalKnown {
		return
	}
	p.TotalResults += delta
	if p.TotalResults < 0 {
		p.TotalResults = 0
	}
}
