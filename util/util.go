package util

import (
	"html/template"
	"sort"
	"strconv"
)

// Pages returns non-consecutive page numbers from 1 to numPages.
func Pages(currentPage int, numPages int) []int {

	if numPages < 1 {
		numPages = 1
	}
	currentPage = ClampPage(currentPage, numPages)

	pages := map[int]struct{}{}

	pages[1] = struct{}{}
	pages[currentPage] = struct{}{}
	pages[numPages] = struct{}{}

	// exponentially growing distance to currentPage, negative after overflow
	for delta := 1; delta > 0 && (currentPage-delta > 1 || delta < numPages-currentPage); delta *= 2 {
		if currentPage-delta > 0 {
			pages[currentPage-delta] = struct{}{}
		}
		if delta < numPages-currentPage {
			pages[currentPage+delta] = struct{}{}
		}
	}

	pageslice := make([]int, 0, len(pages))
	for page := range pages {
		pageslice = append(pageslice, page)
	}
	sort.Ints(pageslice)

	return pageslice
}

// NumPages returns the number of pages which are required to display total items.
func NumPages(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}

// ClampPage returns page limited to [1, numPages].
func ClampPage(page, numPages int) int {
	if page > numPages {
		page = numPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// PageLinks calls Pages and renders Bootstrap pagination items. href returns the link target of a page.
func PageLinks(currentPage int, numPages int, href func(page int) string) []template.HTML {

	pagelinks := []template.HTML{}

	if currentPage < 1 || numPages <= 1 {
		return pagelinks
	}

	var item = func(page int, name string, active bool) template.HTML {
		var class = "page-item"
		if active {
			class += " active"
		}
		return template.HTML(`<li class="` + class + `"><a class="page-link" href="` + template.HTMLEscapeString(href(page)) + `">` + name + `</a></li>`)
	}

	if currentPage > 1 {
		pagelinks = append(pagelinks, item(currentPage-1, `&laquo;`, false))
	}

	for _, page := range Pages(currentPage, numPages) {
		pagelinks = append(pagelinks, item(page, strconv.Itoa(page), page == currentPage))
	}

	if currentPage < numPages {
		pagelinks = append(pagelinks, item(currentPage+1, `&raquo;`, false))
	}

	return pagelinks
}
