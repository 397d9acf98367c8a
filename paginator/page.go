package paginator

import "fmt"

type Page[T any] struct {
	Number    int
	Items     []T
	Paginator *Paginator[T]
}

func (p *Page[T]) String() string {
	return fmt.Sprintf("<Page %d of %d>", p.Number, p.Paginator.NumPages())
}

func (p *Page[T]) HasNext() bool { return p.Number < p.Paginator.NumPages() }

func (p *Page[T]) HasPrevious() bool { return p.Number > 1 }

func (p *Page[T]) HasOtherPages() bool { return p.HasNext() || p.HasPrevious() }

// NextPageNumber is only meaningful when HasNext is true.
func (p *Page[T]) NextPageNumber() int { return p.Number + 1 }

// PreviousPageNumber is only meaningful when HasPrevious is true.
func (p *Page[T]) PreviousPageNumber() int { return p.Number - 1 }

// StartIndex is the 1-based index of the first item on the page, or 0 when
// the paginator is empty.
func (p *Page[T]) StartIndex() int {
	if p.Paginator.Count() == 0 {
		return 0
	}
	return p.Paginator.PerPage()*(p.Number-1) + 1
}

// EndIndex is the 1-based index of the last item on the page.
func (p *Page[T]) EndIndex() int {
	if p.Number == p.Paginator.NumPages() {
		return p.Paginator.Count()
	}
	return p.Number * p.Paginator.PerPage()
}
