package utils

import "testing"

func TestClampPagination(t *testing.T) {
	tests := []struct {
		name        string
		page        int
		perPage     int
		wantPage    int
		wantPerPage int
	}{
		{"defaults pass through", 1, 20, 1, 20},
		{"zero page clamps to 1", 0, 20, 1, 20},
		{"negative page clamps to 1", -5, 20, 1, 20},
		{"zero per_page uses default", 2, 0, 2, DefaultPerPage},
		{"oversized per_page clamps to max", 1, 500, 1, MaxPerPage},
		{"per_page at max passes", 1, 100, 1, 100},
	}

	for _, tt := range tests {
		got := ClampPagination(tt.page, tt.perPage)
		if got.Page != tt.wantPage || got.PerPage != tt.wantPerPage {
			t.Errorf("%s: ClampPagination(%d, %d) = {%d, %d}, want {%d, %d}",
				tt.name, tt.page, tt.perPage, got.Page, got.PerPage, tt.wantPage, tt.wantPerPage)
		}
	}
}

func TestPaginationOffset(t *testing.T) {
	p := Pagination{Page: 3, PerPage: 25}
	if got := p.Offset(); got != 50 {
		t.Errorf("Offset = %d, want 50", got)
	}
}

func TestNewListEnvelope(t *testing.T) {
	p := Pagination{Page: 2, PerPage: 20}
	env := NewListEnvelope(p, 45, []int{1, 2, 3})
	if env.Count != 45 {
		t.Errorf("Count = %d, want 45", env.Count)
	}
	if env.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", env.TotalPages)
	}
	if env.CurrentPage != 2 || env.PerPage != 20 {
		t.Errorf("page fields = %d/%d, want 2/20", env.CurrentPage, env.PerPage)
	}

	empty := NewListEnvelope(p, 0, nil)
	if empty.TotalPages != 0 {
		t.Errorf("empty TotalPages = %d, want 0", empty.TotalPages)
	}
}
