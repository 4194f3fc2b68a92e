package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stackshelf/stackshelf-server/internal/domain"
	"github.com/stackshelf/stackshelf-server/internal/search"
)

func runSearch(t *testing.T, s *Store, q search.Query) (int64, []int64) {
	t.Helper()
	total, ids, err := s.Search(context.Background(), search.Compile(q))
	if err != nil {
		t.Fatalf("search %q: %v", q.Value, err)
	}
	return total, ids
}

// seedScenario creates the 3-archive fixture: A has artist "Jane Doe",
// a male tag, and title "page"; B has the artist but a female tag; C has
// an unrelated artist.
func seedScenario(t *testing.T, s *Store) (a, b, c int64) {
	t.Helper()
	ctx := context.Background()

	archA := testArchive("scn-a", "page")
	archA.Artists = []domain.Taxonomy{{Slug: "jane-doe", Name: "Jane Doe"}}
	archA.Tags = []domain.Tag{{Slug: "male", Name: "male"}}

	archB := testArchive("scn-b", "Another Story")
	archB.Artists = []domain.Taxonomy{{Slug: "jane-doe", Name: "Jane Doe"}}
	archB.Tags = []domain.Tag{{Slug: "female", Name: "female"}}

	archC := testArchive("scn-c", "Unrelated")
	archC.Artists = []domain.Taxonomy{{Slug: "someone-else", Name: "Someone Else"}}

	for _, arch := range []*domain.Archive{archA, archB, archC} {
		if err := s.CreateArchive(ctx, arch); err != nil {
			t.Fatalf("create %s: %v", arch.Key, err)
		}
	}
	return archA.ID, archB.ID, archC.ID
}

func TestSearchScenario(t *testing.T) {
	s := newTestStore(t)
	a, _, _ := seedScenario(t, s)

	total, ids := runSearch(t, s, search.Query{
		Value: `artist:"jane doe" tag:male -tag:female page$`,
	})

	if total != 1 {
		t.Fatalf("total = %d, want 1", total)
	}
	if len(ids) != 1 || ids[0] != a {
		t.Fatalf("ids = %v, want [%d]", ids, a)
	}
}

func TestSearchFacetNegation(t *testing.T) {
	s := newTestStore(t)
	a, b, c := seedScenario(t, s)

	// The negated facet must be the exact complement of the positive one.
	_, pos := runSearch(t, s, search.Query{Value: "tag:female"})
	_, neg := runSearch(t, s, search.Query{Value: "-tag:female"})

	if len(pos) != 1 || pos[0] != b {
		t.Fatalf("positive ids = %v, want [%d]", pos, b)
	}
	got := map[int64]bool{}
	for _, id := range neg {
		got[id] = true
	}
	if len(neg) != 2 || !got[a] || !got[c] {
		t.Fatalf("negative ids = %v, want {%d, %d}", neg, a, c)
	}
}

func TestSearchGroupingOrOfAnd(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// only-a satisfies the left OR branch alone; b-and-c satisfies the
	// right branch; only-b and only-c satisfy neither.
	fixtures := map[string][]string{
		"only-a":  {"a"},
		"b-and-c": {"b", "c"},
		"only-b":  {"b"},
		"only-c":  {"c"},
	}
	want := map[string]bool{}
	for key, tags := range fixtures {
		arch := testArchive("grp-"+key, key)
		for _, tag := range tags {
			arch.Tags = append(arch.Tags, domain.Tag{Slug: tag, Name: tag, Namespace: "misc"})
		}
		if err := s.CreateArchive(ctx, arch); err != nil {
			t.Fatalf("create %s: %v", key, err)
		}
		if key == "only-a" || key == "b-and-c" {
			want[key] = true
		}
	}

	total, ids := runSearch(t, s, search.Query{Value: "tag:a|b&c"})
	if total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}

	for _, id := range ids {
		arch, err := s.GetArchive(ctx, id)
		if err != nil {
			t.Fatalf("get %d: %v", id, err)
		}
		if !want[arch.Title] {
			t.Errorf("unexpected match %s", arch.Title)
		}
	}
}

func TestSearchCountMatchesPages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		arch := testArchive(string(rune('a'+i)), "Bulk")
		arch.Tags = []domain.Tag{{Slug: "bulk", Name: "bulk", Namespace: "misc"}}
		if err := s.CreateArchive(ctx, arch); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	seen := map[int64]bool{}
	var total int64
	for page := 1; ; page++ {
		q := search.Query{Value: "tag:bulk", Page: page, Limit: 3}
		pageTotal, ids := runSearch(t, s, q)
		total = pageTotal
		if len(ids) == 0 {
			break
		}
		for _, id := range ids {
			if seen[id] {
				t.Fatalf("id %d returned on two pages", id)
			}
			seen[id] = true
		}
	}

	if int64(len(seen)) != total {
		t.Fatalf("distinct ids = %d, count = %d", len(seen), total)
	}
	if total != 7 {
		t.Fatalf("total = %d, want 7", total)
	}
}

func TestSearchFreeTextPrefixAndExact(t *testing.T) {
	s := newTestStore(t)
	seedScenario(t, s)

	// Prefix: "pag" matches the title "page".
	total, _ := runSearch(t, s, search.Query{Value: "pag"})
	if total != 1 {
		t.Fatalf("prefix total = %d, want 1", total)
	}

	// Exact: "pag$" must not match "page".
	total, _ = runSearch(t, s, search.Query{Value: "pag$"})
	if total != 0 {
		t.Fatalf("exact total = %d, want 0", total)
	}
}

func TestSearchExcludesSoftDeleted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, _, _ := seedScenario(t, s)

	if err := s.DeleteArchive(ctx, a); err != nil {
		t.Fatalf("delete: %v", err)
	}

	total, _ := runSearch(t, s, search.Query{Value: `artist:"jane doe"`})
	if total != 1 {
		t.Fatalf("total = %d, want 1 (deleted excluded)", total)
	}

	total, _ = runSearch(t, s, search.Query{Value: `artist:"jane doe"`, Deleted: true})
	if total != 2 {
		t.Fatalf("total with deleted = %d, want 2", total)
	}
}

func TestSearchReleasedAtNullsLast(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	released := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	withDate := testArchive("rd-1", "Dated")
	withDate.ReleasedAt = &released
	noDate := testArchive("rd-2", "Undated")

	if err := s.CreateArchive(ctx, withDate); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateArchive(ctx, noDate); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, ids := runSearch(t, s, search.Query{Sort: search.SortReleasedAt, Order: search.OrderDesc})
	if len(ids) != 2 {
		t.Fatalf("ids = %v", ids)
	}
	if ids[0] != withDate.ID || ids[1] != noDate.ID {
		t.Fatalf("order = %v, want dated before undated", ids)
	}
}

func TestSearchRandomDeterministic(t *testing.T) {
	s := newTestStore(t)
	seedScenario(t, s)

	_, first := runSearch(t, s, search.Query{Sort: search.SortRandom, Seed: 7})
	_, second := runSearch(t, s, search.Query{Sort: search.SortRandom, Seed: 7})

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("same seed produced different orders: %v vs %v", first, second)
		}
	}
}
