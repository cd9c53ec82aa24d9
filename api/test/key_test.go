package test

import (
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/DARK-V-98/oshadividarshana-api/core/key"
	"github.com/DARK-V-98/oshadividarshana-api/core/order"
	"github.com/DARK-V-98/oshadividarshana-api/core/unit"
)

func createKeyOK(t *testing.T, env *TestEnv, items []order.ItemNew) key.Key {
	t.Helper()

	var k key.Key
	w := env.request(t, http.MethodPost, "/keys", env.AdminToken, key.KeyNew{Items: items}, &k)
	if w.StatusCode != http.StatusCreated {
		t.Fatalf("creating key: status %s", w.Status)
	}

	return k
}

func TestKeyRedemption(t *testing.T) {
	env, err := NewTestEnv(t, "key_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	u := createUnitOK(t, env)

	dup := []order.ItemNew{
		{UnitID: u.ID, ItemType: unit.EnglishNote},
		{UnitID: u.ID, ItemType: unit.EnglishNote},
	}
	w := env.request(t, http.MethodPost, "/keys", env.AdminToken, key.KeyNew{Items: dup}, nil)
	if w.StatusCode != http.StatusBadRequest {
		t.Fatalf("key with duplicate items: expected 400, got %s", w.Status)
	}

	k := createKeyOK(t, env, []order.ItemNew{{UnitID: u.ID, ItemType: unit.EnglishNote}})

	if k.Key == "" || k.RedeemedBy != nil {
		t.Fatalf("fresh key is malformed: %+v", k)
	}

	// Unknown key.
	w = env.request(t, http.MethodPost, "/keys/redeem", env.UserToken, key.Redemption{Key: "no-such-key"}, nil)
	if w.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown key: expected 404, got %s", w.Status)
	}

	// Redemption fabricates an already-completed order.
	var ord order.Order
	w = env.request(t, http.MethodPost, "/keys/redeem", env.UserToken, key.Redemption{Key: k.Key}, &ord)
	if w.StatusCode != http.StatusOK {
		t.Fatalf("redeeming key: status %s", w.Status)
	}
	if ord.Status != order.Completed || ord.CompletedAt == nil {
		t.Fatalf("redeemed order must be completed: %+v", ord)
	}
	if ord.UserID != env.UserID {
		t.Fatalf("order went to the wrong user: %s", ord.UserID)
	}
	if ord.Code != k.OrderCode || ord.Total != k.Total {
		t.Fatalf("order does not mirror the key: %+v vs %+v", ord, k)
	}
	if len(ord.Items) != 1 || ord.Items[0].ItemType != unit.EnglishNote {
		t.Fatalf("order items do not mirror the key: %+v", ord.Items)
	}

	// A spent key stays spent.
	w = env.request(t, http.MethodPost, "/keys/redeem", env.UserToken, key.Redemption{Key: k.Key}, nil)
	if w.StatusCode != http.StatusConflict {
		t.Fatalf("double redemption: expected 409, got %s", w.Status)
	}
}

func TestKeyConcurrentRedemption(t *testing.T) {
	env, err := NewTestEnv(t, "key_race_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	u := createUnitOK(t, env)
	k := createKeyOK(t, env, []order.ItemNew{{UnitID: u.ID, ItemType: unit.SinhalaNote}})

	const attempts = 8
	codes := make([]int, attempts)
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			r, err := http.NewRequest(http.MethodPost, env.URL+"/keys/redeem",
				strings.NewReader(`{"key":"`+k.Key+`"}`))
			if err != nil {
				errs[i] = err
				return
			}
			r.Header.Set("Authorization", "Bearer "+env.UserToken)
			r.Header.Set("Content-Type", "application/json")

			w, err := http.DefaultClient.Do(r)
			if err != nil {
				errs[i] = err
				return
			}
			w.Body.Close()
			codes[i] = w.StatusCode
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("redemption attempt %d: %v", i, err)
		}
	}

	succeeded, conflicted := 0, 0
	for _, c := range codes {
		switch c {
		case http.StatusOK:
			succeeded++
		case http.StatusConflict:
			conflicted++
		default:
			t.Fatalf("unexpected status %d during concurrent redemption", c)
		}
	}

	if succeeded != 1 || conflicted != attempts-1 {
		t.Fatalf("expected exactly one successful redemption, got %d ok / %d conflict", succeeded, conflicted)
	}
}
