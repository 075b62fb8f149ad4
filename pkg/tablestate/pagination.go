package tablestate

// Pagination is the 0-based pagination state.
type Pagination struct {
	PageIndex int
	PageSize  int
}

// Page returns the 1-based page number.
func (p Pagination) Page() int { return p.PageIndex + 1 }

// Pagination returns the current pagination state.
func (c *Controller) Pagination() Pagination {
	return Pagination{PageIndex: c.page.Get() - 1, PageSize: c.perPage.Get()}
}

// SetPage moves to the 1-based page n. Values below 1 select page 1.
func (c *Controller) SetPage(n int) {
	if n < DefaultPage {
		n = DefaultPage
	}
	c.page.Set(n)
}

// SetPageIndex moves to the 0-based page i.
func (c *Controller) SetPageIndex(i int) {
	c.SetPage(i + 1)
}

// SetPageSize changes the page size and returns to page 1.
func (c *Controller) SetPageSize(n int) {
	if n < 1 {
		n = c.opts.perPage
	}
	c.perPage.SetWith(n, c.page.Assign(DefaultPage))
}

// NextPage advances one page.
func (c *Controller) NextPage() {
	c.page.Update(func(p int) int { return p + 1 })
}

// PrevPage goes back one page, stopping at page 1.
func (c *Controller) PrevPage() {
	c.page.Update(func(p int) int { return max(DefaultPage, p-1) })
}

// ResetPagination restores the default page and page size.
func (c *Controller) ResetPagination() {
	c.page.Reset()
	c.perPage.Reset()
}

// CanNextPage reports whether a page exists after the current one.
func (c *Controller) CanNextPage(pageCount int) bool {
	return c.page.Get() < pageCount
}

// CanPrevPage reports whether the current page is past the first.
func (c *Controller) CanPrevPage() bool {
	return c.page.Get() > DefaultPage
}

// ClampPage moves back to the last page when the current page lies beyond
// pageCount. It reports whether the page changed.
func (c *Controller) ClampPage(pageCount int) bool {
	if pageCount < 1 || c.page.Get() <= pageCount {
		return false
	}
	c.logger.Debug("page out of range", "page", c.page.Get(), "pageCount", pageCount)
	c.page.Set(pageCount)
	return true
}
