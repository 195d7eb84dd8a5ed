package snapshotfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/mertab/minibank/internal/models"
	"github.com/mertab/minibank/internal/storage"
)

func testHolders() []models.AccountHolder {
	return []models.AccountHolder{
		{
			ID: 1, Username: "ada", Name: "Ada", Role: models.RoleCustomer,
			Password: "pw", Email: "ada@example.com",
			Accounts: []models.Account{
				{
					Number: "100", Type: models.AccountChecking, Balance: 500,
					Transactions: []models.TransactionEntry{
						{Date: 20240101, Amount: -25.5, Details: "groceries", ToAccount: "0", FromAccount: "100", RecipientName: "Shop"},
					},
				},
			},
		},
		{ID: 2, Username: "bob", Name: "Bob", Role: models.RoleTeller, Accounts: []models.Account{}},
	}
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := New(filepath.Join(t.TempDir(), "holders.json"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	want := testHolders()
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestLoadMissing(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = store.Load(context.Background())
	if !errors.Is(err, storage.ErrSnapshotMissing) {
		t.Errorf("want ErrSnapshotMissing, got %v", err)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holders.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	store, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = store.Load(context.Background())
	if !errors.Is(err, storage.ErrPersistence) {
		t.Errorf("want ErrPersistence, got %v", err)
	}
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	store, err := New(filepath.Join(dir, "holders.json"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := store.Save(context.Background(), testHolders()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "holders.json" {
		t.Errorf("unexpected directory contents: %v", entries)
	}
}

func TestSaveCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "nested", "holders.json")
	store, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := store.Save(context.Background(), nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("snapshot not written: %v", err)
	}
}

func TestTemplate(t *testing.T) {
	holders, err := Template()
	if err != nil {
		t.Fatalf("Template: %v", err)
	}
	if len(holders) == 0 {
		t.Fatal("bundled template is empty")
	}

	numbers := map[string]bool{}
	for _, h := range holders {
		if h.ID == 0 {
			t.Errorf("template holder %q has no id", h.Username)
		}
		for _, a := range h.Accounts {
			if numbers[a.Number] {
				t.Errorf("template reuses account number %s", a.Number)
			}
			numbers[a.Number] = true
		}
	}
}
