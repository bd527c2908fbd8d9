package core

import "strconv"

// AssignIDs walks the ordered chunk sequence and assigns each chunk its
// deterministic "source:page:index" identifier. The index starts at 0 and
// increments while consecutive chunks share a page; it resets to 0 whenever
// the page changes.
//
// Precondition: chunks from the same page must be contiguous and in page
// order, exactly as the splitter emits them. If the caller reorders chunks
// so that a page appears non-contiguously, indices restart and identifiers
// collide silently. This is not checked at runtime.
//
// AssignIDs mutates only the ID and Index fields of its input.
func AssignIDs(chunks []*Chunk) {
	lastPageID := ""
	index := 0

	for _, chunk := range chunks {
		pageID := chunk.Metadata.PageID()
		if pageID == lastPageID {
			index++
		} else {
			index = 0
		}
		chunk.Index = index
		chunk.ID = pageID + ":" + strconv.Itoa(index)
		lastPageID = pageID
	}
}
