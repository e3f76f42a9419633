package dao

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// runDAOTests runs the same tests against any LinkDao implementation.
// createDAO gets the subtest's T so integration factories can purge
// leftover state with proper failure reporting.
func runDAOTests(t *testing.T, name string, createDAO func(t *testing.T) LinkDao) {
	t.Run(name, func(t *testing.T) {
		t.Run("Insert and Get", func(t *testing.T) {
			dao := createDAO(t)
			defer dao.Cleanup()

			link, err := dao.Insert("abc1234", "https://example.com")
			if err != nil {
				t.Fatalf("Insert() error = %v", err)
			}
			if link.ShortCode != "abc1234" {
				t.Errorf("Insert().ShortCode = %v, want abc1234", link.ShortCode)
			}
			if link.TargetURL != "https://example.com" {
				t.Errorf("Insert().TargetURL = %v, want https://example.com", link.TargetURL)
			}
			if link.TotalClicks != 0 {
				t.Errorf("Insert().TotalClicks = %v, want 0", link.TotalClicks)
			}
			if link.CreatedAt.IsZero() {
				t.Error("Insert().CreatedAt is zero")
			}
			if link.LastClicked != nil {
				t.Errorf("Insert().LastClicked = %v, want nil", link.LastClicked)
			}

			got, err := dao.Get("abc1234")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.TargetURL != "https://example.com" {
				t.Errorf("Get().TargetURL = %v, want https://example.com", got.TargetURL)
			}
			if got.LastClicked != nil {
				t.Errorf("Get().LastClicked = %v, want nil", got.LastClicked)
			}
		})

		t.Run("Insert duplicate code", func(t *testing.T) {
			dao := createDAO(t)
			defer dao.Cleanup()

			if _, err := dao.Insert("dup1234", "https://first.com"); err != nil {
				t.Fatalf("Insert() error = %v", err)
			}

			_, err := dao.Insert("dup1234", "https://second.com")
			if !errors.Is(err, ErrDuplicateCode) {
				t.Fatalf("Insert() error = %v, want ErrDuplicateCode", err)
			}

			// The original mapping must be untouched.
			got, err := dao.Get("dup1234")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.TargetURL != "https://first.com" {
				t.Errorf("Get().TargetURL = %v, want https://first.com", got.TargetURL)
			}
		})

		t.Run("Get missing code", func(t *testing.T) {
			dao := createDAO(t)
			defer dao.Cleanup()

			_, err := dao.Get("missing1")
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("Get() error = %v, want ErrNotFound", err)
			}
		})

		t.Run("Redirect counts clicks", func(t *testing.T) {
			dao := createDAO(t)
			defer dao.Cleanup()

			start := time.Now().UTC().Truncate(time.Second)
			if _, err := dao.Insert("click99", "https://clicked.com"); err != nil {
				t.Fatalf("Insert() error = %v", err)
			}

			for i := 0; i < 3; i++ {
				url, err := dao.Redirect("click99")
				if err != nil {
					t.Fatalf("Redirect() error = %v", err)
				}
				if url != "https://clicked.com" {
					t.Errorf("Redirect() = %v, want https://clicked.com", url)
				}
			}

			got, err := dao.Get("click99")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.TotalClicks != 3 {
				t.Errorf("Get().TotalClicks = %v, want 3", got.TotalClicks)
			}
			if got.LastClicked == nil {
				t.Fatal("Get().LastClicked is nil after redirects")
			}
			if got.LastClicked.Before(start) {
				t.Errorf("Get().LastClicked = %v, before test start %v", got.LastClicked, start)
			}
		})

		t.Run("Redirect missing code", func(t *testing.T) {
			dao := createDAO(t)
			defer dao.Cleanup()

			_, err := dao.Redirect("missing1")
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("Redirect() error = %v, want ErrNotFound", err)
			}
		})

		t.Run("Delete frees the code", func(t *testing.T) {
			dao := createDAO(t)
			defer dao.Cleanup()

			if _, err := dao.Insert("freeme1", "https://old.com"); err != nil {
				t.Fatalf("Insert() error = %v", err)
			}
			if err := dao.Delete("freeme1"); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}

			if _, err := dao.Get("freeme1"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
			}
			if _, err := dao.Redirect("freeme1"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Redirect() after delete error = %v, want ErrNotFound", err)
			}

			// The code is immediately reusable.
			link, err := dao.Insert("freeme1", "https://new.com")
			if err != nil {
				t.Fatalf("Insert() after delete error = %v", err)
			}
			if link.TotalClicks != 0 {
				t.Errorf("reused code TotalClicks = %v, want 0", link.TotalClicks)
			}
		})

		t.Run("Delete missing code", func(t *testing.T) {
			dao := createDAO(t)
			defer dao.Cleanup()

			if err := dao.Delete("missing1"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Delete() error = %v, want ErrNotFound", err)
			}
		})

		t.Run("List newest first", func(t *testing.T) {
			dao := createDAO(t)
			defer dao.Cleanup()

			for _, code := range []string{"aaaaaaa", "bbbbbbb", "ccccccc"} {
				if _, err := dao.Insert(code, "https://"+code+".com"); err != nil {
					t.Fatalf("Insert(%s) error = %v", code, err)
				}
			}

			links, err := dao.List()
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(links) != 3 {
				t.Fatalf("List() returned %d links, want 3", len(links))
			}
			want := []string{"ccccccc", "bbbbbbb", "aaaaaaa"}
			for i, code := range want {
				if links[i].ShortCode != code {
					t.Errorf("List()[%d].ShortCode = %v, want %v", i, links[i].ShortCode, code)
				}
			}
		})

		t.Run("List empty registry", func(t *testing.T) {
			dao := createDAO(t)
			defer dao.Cleanup()

			links, err := dao.List()
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if links == nil {
				t.Fatal("List() = nil, want empty slice")
			}
			if len(links) != 0 {
				t.Errorf("List() returned %d links, want 0", len(links))
			}
		})

		t.Run("Concurrent redirects", func(t *testing.T) {
			dao := createDAO(t)
			defer dao.Cleanup()

			if _, err := dao.Insert("racer77", "https://race.com"); err != nil {
				t.Fatalf("Insert() error = %v", err)
			}

			var wg sync.WaitGroup
			for range 10 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for range 5 {
						if _, err := dao.Redirect("racer77"); err != nil {
							t.Errorf("Redirect() error = %v", err)
						}
					}
				}()
			}
			wg.Wait()

			got, err := dao.Get("racer77")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.TotalClicks != 50 {
				t.Errorf("Get().TotalClicks = %v, want 50", got.TotalClicks)
			}
		})

		t.Run("IsLikelyOk", func(t *testing.T) {
			dao := createDAO(t)
			defer dao.Cleanup()

			if !dao.IsLikelyOk() {
				t.Error("IsLikelyOk() = false, want true")
			}
		})
	})
}

func TestMemoryDB(t *testing.T) {
	runDAOTests(t, "MemoryDB", func(*testing.T) LinkDao {
		return CreateMemoryDB()
	})
}

func TestSQLiteDB(t *testing.T) {
	runDAOTests(t, "SQLiteDB", func(*testing.T) LinkDao {
		return CreateSQLiteDB(":memory:")
	})
}
