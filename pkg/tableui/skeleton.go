package tableui

import . "github.com/vango-dev/tabledash/pkg/vdom"

func skeletonBlock(class string) *VNode {
	return Div(Class("skeleton", class), Data("slot", "skeleton"))
}

// SkeletonBody returns SkeletonRows placeholder rows of columnCount cells.
func SkeletonBody(columnCount int) []*VNode {
	return Repeat(SkeletonRows, func(r int) *VNode {
		return Tr(
			Key("skeleton-row-"+itoa(r)),
			Repeat(columnCount, func(c int) *VNode {
				return Td(Key("skeleton-cell-"+itoa(r)+"-"+itoa(c)), skeletonBlock("h-5 w-full"))
			}),
		)
	})
}

// Skeleton renders a full placeholder table of columnCount columns.
func Skeleton(columnCount int) *VNode {
	return Div(
		Class("data-table", "data-table-skeleton"),
		AriaBusy(true),
		Div(Class("data-table-frame"),
			Table(
				Thead(Tr(Repeat(columnCount, func(c int) *VNode {
					return Th(Key("header-skeleton-"+itoa(c)), skeletonBlock("h-4 w-24"))
				}))),
				Tbody(SkeletonBody(columnCount)),
			),
		),
		PaginationSkeleton(),
	)
}

// ToolbarSkeleton stands in for the toolbar while filter options load.
func ToolbarSkeleton() *VNode {
	return Div(
		Class("toolbar", "toolbar-skeleton"),
		AriaBusy(true),
		Div(Class("toolbar-filters"),
			skeletonBlock("w-48 h-7"),
			skeletonBlock("w-40 h-7"),
			skeletonBlock("w-40 h-7"),
		),
		skeletonBlock("w-28 h-7"),
	)
}

// PaginationSkeleton stands in for the pagination bar while loading.
func PaginationSkeleton() *VNode {
	return Div(
		Class("pagination", "pagination-skeleton"),
		skeletonBlock("h-7 w-32"),
		Div(Class("pagination-controls"),
			skeletonBlock("h-7 w-44"),
			skeletonBlock("h-7 w-44"),
		),
	)
}
