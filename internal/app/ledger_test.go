package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/corebank/banking-service/internal/domain"
	"github.com/corebank/banking-service/internal/store"
)

func newTestLedger(repo store.Repository) *Ledger {
	return NewLedger(repo, nil, nil, 0)
}

func TestDeposit_CreditsBalanceAndAppendsRecord(t *testing.T) {
	repo := newMemRepo()
	account := repo.addAccount(&domain.Account{
		AccountNumber: "ACC-101-200",
		Email:         "alice@example.com",
		CustomerID:    "CUST1001",
		BalanceCents:  10000,
	})
	ledger := newTestLedger(repo)

	record, err := ledger.Deposit(context.Background(), "ACC-101-200", 5000, "")
	if err != nil {
		t.Fatalf("Deposit returned error: %v", err)
	}
	if got := repo.balance(account.ID); got != 15000 {
		t.Errorf("balance after deposit = %d, want 15000", got)
	}
	if record.Kind != domain.KindDeposit {
		t.Errorf("record kind = %q, want %q", record.Kind, domain.KindDeposit)
	}
	if record.Status != domain.TxCompleted {
		t.Errorf("record status = %q, want %q", record.Status, domain.TxCompleted)
	}
	if record.Reference != "Staff Deposit" {
		t.Errorf("default reference = %q, want %q", record.Reference, "Staff Deposit")
	}
	if record.SenderID != nil {
		t.Errorf("deposit record should have no sender, got %v", record.SenderID)
	}
	if record.ReceiverID == nil || *record.ReceiverID != account.ID {
		t.Errorf("deposit record receiver = %v, want %s", record.ReceiverID, account.ID)
	}
}

func TestDeposit_RejectsNonPositiveAmount(t *testing.T) {
	repo := newMemRepo()
	repo.addAccount(&domain.Account{AccountNumber: "ACC-101-200", Email: "a@example.com", CustomerID: "CUST1001"})
	ledger := newTestLedger(repo)

	for _, amount := range []int64{0, -100} {
		if _, err := ledger.Deposit(context.Background(), "ACC-101-200", amount, ""); !errors.Is(err, domain.ErrInvalidAmount) {
			t.Errorf("Deposit(%d) error = %v, want ErrInvalidAmount", amount, err)
		}
	}
	if repo.recordCount() != 0 {
		t.Errorf("rejected deposits must not leave records, found %d", repo.recordCount())
	}
}

func TestDeposit_UnknownAccountNumber(t *testing.T) {
	ledger := newTestLedger(newMemRepo())

	if _, err := ledger.Deposit(context.Background(), "ACC-000-000", 5000, ""); !errors.Is(err, store.ErrAccountNotFound) {
		t.Errorf("Deposit error = %v, want ErrAccountNotFound", err)
	}
}

func TestTransfer_MovesFundsAndAppendsRecord(t *testing.T) {
	repo := newMemRepo()
	sender := repo.addAccount(&domain.Account{
		AccountNumber: "ACC-101-200",
		Email:         "alice@example.com",
		CustomerID:    "CUST1001",
		BalanceCents:  10000,
	})
	receiver := repo.addAccount(&domain.Account{
		AccountNumber: "ACC-101-201",
		Email:         "bob@example.com",
		CustomerID:    "CUST1002",
		BalanceCents:  2000,
	})
	ledger := newTestLedger(repo)

	record, err := ledger.Transfer(context.Background(), sender.ID, "bob@example.com", 4000, "rent")
	if err != nil {
		t.Fatalf("Transfer returned error: %v", err)
	}
	if got := repo.balance(sender.ID); got != 6000 {
		t.Errorf("sender balance = %d, want 6000", got)
	}
	if got := repo.balance(receiver.ID); got != 6000 {
		t.Errorf("receiver balance = %d, want 6000", got)
	}
	if record.Kind != domain.KindTransfer {
		t.Errorf("record kind = %q, want %q", record.Kind, domain.KindTransfer)
	}
	if record.SenderID == nil || *record.SenderID != sender.ID {
		t.Errorf("record sender = %v, want %s", record.SenderID, sender.ID)
	}
	if record.ReceiverID == nil || *record.ReceiverID != receiver.ID {
		t.Errorf("record receiver = %v, want %s", record.ReceiverID, receiver.ID)
	}
}

func TestTransfer_ResolvesReceiverByCustomerID(t *testing.T) {
	repo := newMemRepo()
	sender := repo.addAccount(&domain.Account{
		AccountNumber: "ACC-101-200",
		Email:         "alice@example.com",
		CustomerID:    "CUST1001",
		BalanceCents:  10000,
	})
	receiver := repo.addAccount(&domain.Account{
		AccountNumber: "ACC-101-201",
		Email:         "bob@example.com",
		CustomerID:    "CUST1002",
	})
	ledger := newTestLedger(repo)

	if _, err := ledger.Transfer(context.Background(), sender.ID, "CUST1002", 1000, ""); err != nil {
		t.Fatalf("Transfer by customer id returned error: %v", err)
	}
	if got := repo.balance(receiver.ID); got != 1000 {
		t.Errorf("receiver balance = %d, want 1000", got)
	}
}

func TestTransfer_InsufficientFundsLeavesNoTrace(t *testing.T) {
	repo := newMemRepo()
	sender := repo.addAccount(&domain.Account{
		AccountNumber: "ACC-101-200",
		Email:         "alice@example.com",
		CustomerID:    "CUST1001",
		BalanceCents:  3000,
	})
	receiver := repo.addAccount(&domain.Account{
		AccountNumber: "ACC-101-201",
		Email:         "bob@example.com",
		CustomerID:    "CUST1002",
		BalanceCents:  500,
	})
	ledger := newTestLedger(repo)

	_, err := ledger.Transfer(context.Background(), sender.ID, "bob@example.com", 4000, "")
	if !errors.Is(err, store.ErrInsufficientFunds) {
		t.Fatalf("Transfer error = %v, want ErrInsufficientFunds", err)
	}
	if got := repo.balance(sender.ID); got != 3000 {
		t.Errorf("sender balance changed to %d, want 3000", got)
	}
	if got := repo.balance(receiver.ID); got != 500 {
		t.Errorf("receiver balance changed to %d, want 500", got)
	}
	if repo.recordCount() != 0 {
		t.Errorf("failed transfer must not leave records, found %d", repo.recordCount())
	}
}

func TestTransfer_SelfTransferRejected(t *testing.T) {
	repo := newMemRepo()
	sender := repo.addAccount(&domain.Account{
		AccountNumber: "ACC-101-200",
		Email:         "alice@example.com",
		CustomerID:    "CUST1001",
		BalanceCents:  10000,
	})
	ledger := newTestLedger(repo)

	if _, err := ledger.Transfer(context.Background(), sender.ID, "alice@example.com", 1000, ""); !errors.Is(err, store.ErrSelfTransfer) {
		t.Errorf("Transfer error = %v, want ErrSelfTransfer", err)
	}
	if got := repo.balance(sender.ID); got != 10000 {
		t.Errorf("sender balance changed to %d, want 10000", got)
	}
}

func TestTransfer_UnknownReceiver(t *testing.T) {
	repo := newMemRepo()
	sender := repo.addAccount(&domain.Account{
		AccountNumber: "ACC-101-200",
		Email:         "alice@example.com",
		CustomerID:    "CUST1001",
		BalanceCents:  10000,
	})
	ledger := newTestLedger(repo)

	if _, err := ledger.Transfer(context.Background(), sender.ID, "nobody@example.com", 1000, ""); !errors.Is(err, store.ErrReceiverNotFound) {
		t.Errorf("Transfer error = %v, want ErrReceiverNotFound", err)
	}
}

func TestTransfer_ConservesTotalBalance(t *testing.T) {
	repo := newMemRepo()
	a := repo.addAccount(&domain.Account{AccountNumber: "ACC-101-200", Email: "a@example.com", CustomerID: "CUST1001", BalanceCents: 10000})
	repo.addAccount(&domain.Account{AccountNumber: "ACC-101-201", Email: "b@example.com", CustomerID: "CUST1002", BalanceCents: 5000})
	repo.addAccount(&domain.Account{AccountNumber: "ACC-101-202", Email: "c@example.com", CustomerID: "CUST1003", BalanceCents: 2500})
	ledger := newTestLedger(repo)

	before := repo.totalBalance()
	for _, target := range []string{"b@example.com", "c@example.com", "b@example.com"} {
		if _, err := ledger.Transfer(context.Background(), a.ID, target, 1500, ""); err != nil {
			t.Fatalf("Transfer to %s returned error: %v", target, err)
		}
	}
	if after := repo.totalBalance(); after != before {
		t.Errorf("total balance drifted from %d to %d", before, after)
	}
}

// Two simultaneous transfers each try to move the sender's entire balance.
// The serialized unit of work guarantees exactly one succeeds and the other
// fails the funds check after the first commit.
func TestTransfer_ConcurrentFullBalanceTransfers(t *testing.T) {
	repo := newMemRepo()
	sender := repo.addAccount(&domain.Account{
		AccountNumber: "ACC-101-200",
		Email:         "alice@example.com",
		CustomerID:    "CUST1001",
		BalanceCents:  10000,
	})
	repo.addAccount(&domain.Account{AccountNumber: "ACC-101-201", Email: "b@example.com", CustomerID: "CUST1002"})
	repo.addAccount(&domain.Account{AccountNumber: "ACC-101-202", Email: "c@example.com", CustomerID: "CUST1003"})
	ledger := newTestLedger(repo)

	results := make([]error, 2)
	var wg sync.WaitGroup
	for i, target := range []string{"b@example.com", "c@example.com"} {
		wg.Add(1)
		go func(i int, target string) {
			defer wg.Done()
			_, results[i] = ledger.Transfer(context.Background(), sender.ID, target, 10000, "")
		}(i, target)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, store.ErrInsufficientFunds):
			rejected++
		default:
			t.Fatalf("unexpected transfer error: %v", err)
		}
	}
	if succeeded != 1 || rejected != 1 {
		t.Fatalf("got %d successes and %d funds rejections, want exactly 1 of each", succeeded, rejected)
	}
	if got := repo.balance(sender.ID); got != 0 {
		t.Errorf("sender balance = %d, want 0", got)
	}
	if got := repo.totalBalance(); got != 10000 {
		t.Errorf("total balance = %d, want 10000", got)
	}
	if repo.recordCount() != 1 {
		t.Errorf("record count = %d, want 1", repo.recordCount())
	}
}

func TestTransfer_TransientStoreFailureSurfaces(t *testing.T) {
	repo := newMemRepo()
	sender := repo.addAccount(&domain.Account{
		AccountNumber: "ACC-101-200",
		Email:         "alice@example.com",
		CustomerID:    "CUST1001",
		BalanceCents:  10000,
	})
	repo.addAccount(&domain.Account{AccountNumber: "ACC-101-201", Email: "b@example.com", CustomerID: "CUST1002"})
	repo.transferErr = errors.Join(store.ErrTransientStore, errors.New("lock timeout"))
	ledger := newTestLedger(repo)

	if _, err := ledger.Transfer(context.Background(), sender.ID, "b@example.com", 1000, ""); !errors.Is(err, store.ErrTransientStore) {
		t.Errorf("Transfer error = %v, want ErrTransientStore", err)
	}
}

func TestHistory_ReturnsOwnRecordsNewestFirst(t *testing.T) {
	repo := newMemRepo()
	a := repo.addAccount(&domain.Account{AccountNumber: "ACC-101-200", Email: "a@example.com", CustomerID: "CUST1001", BalanceCents: 10000})
	b := repo.addAccount(&domain.Account{AccountNumber: "ACC-101-201", Email: "b@example.com", CustomerID: "CUST1002", BalanceCents: 10000})
	repo.addAccount(&domain.Account{AccountNumber: "ACC-101-202", Email: "c@example.com", CustomerID: "CUST1003", BalanceCents: 10000})
	ledger := newTestLedger(repo)

	if _, err := ledger.Transfer(context.Background(), a.ID, "b@example.com", 1000, "first"); err != nil {
		t.Fatalf("setup transfer failed: %v", err)
	}
	if _, err := ledger.Transfer(context.Background(), b.ID, "c@example.com", 500, "not-a's"); err != nil {
		t.Fatalf("setup transfer failed: %v", err)
	}
	if _, err := ledger.Transfer(context.Background(), a.ID, "c@example.com", 2000, "second"); err != nil {
		t.Fatalf("setup transfer failed: %v", err)
	}

	views, err := ledger.History(context.Background(), a.ID, 10)
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("history length = %d, want 2", len(views))
	}
	if views[0].Reference != "second" || views[1].Reference != "first" {
		t.Errorf("history order = [%q, %q], want newest first", views[0].Reference, views[1].Reference)
	}
	if views[0].Amount != "20.00" {
		t.Errorf("history amount = %q, want \"20.00\"", views[0].Amount)
	}
}
