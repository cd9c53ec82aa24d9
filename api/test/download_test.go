package test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/DARK-V-98/oshadividarshana-api/core/content"
	"github.com/DARK-V-98/oshadividarshana-api/core/order"
	"github.com/DARK-V-98/oshadividarshana-api/core/unit"
)

type grant struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func downloadPath(orderID, unitID string, t unit.ItemType) string {
	return "/orders/" + orderID + "/items/" + unitID + "/" + string(t) + "/download"
}

func consumePath(orderID, unitID string, t unit.ItemType) string {
	return "/orders/" + orderID + "/items/" + unitID + "/" + string(t) + "/file"
}

func TestDownload(t *testing.T) {
	env, err := NewTestEnv(t, "download_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	master := []byte("%PDF-1.4 sinhala notes")

	u := createUnitOK(t, env)
	env.Store.Put(content.MasterPath(u.ID, unit.SinhalaNote), master)

	ord := createOrderOK(t, env, []order.ItemNew{
		{UnitID: u.ID, ItemType: unit.SinhalaNote},
		{UnitID: u.ID, ItemType: unit.EnglishNote},
	})

	// Not completed yet: the gateway stays shut.
	w := env.request(t, http.MethodPost, downloadPath(ord.ID, u.ID, unit.SinhalaNote), env.UserToken, nil, nil)
	if w.StatusCode != http.StatusConflict {
		t.Fatalf("download before completion: expected 409, got %s", w.Status)
	}

	completeOrderOK(t, env, ord.ID)

	// Only one of the two masters exists, so only one copy lands.
	var mat struct {
		Materialized int `json:"materialized"`
	}
	w = env.request(t, http.MethodPost, "/orders/"+ord.ID+"/materialize", env.AdminToken, nil, &mat)
	if w.StatusCode != http.StatusOK {
		t.Fatalf("materializing: status %s", w.Status)
	}
	if mat.Materialized != 1 {
		t.Fatalf("expected 1 materialized file, got %d", mat.Materialized)
	}

	var fetched order.Order
	env.request(t, http.MethodGet, "/orders/"+ord.ID, env.UserToken, nil, &fetched)
	for _, it := range fetched.Items {
		switch it.ItemType {
		case unit.SinhalaNote:
			if it.UserFilePath == nil {
				t.Fatal("materialized item carries no file path")
			}
		case unit.EnglishNote:
			if it.UserFilePath != nil {
				t.Fatalf("item without a master must stay empty, got %s", *it.UserFilePath)
			}
		}
	}

	// Grant for the present master works, and the signed URL serves bytes.
	var g grant
	w = env.request(t, http.MethodPost, downloadPath(ord.ID, u.ID, unit.SinhalaNote), env.UserToken, nil, &g)
	if w.StatusCode != http.StatusOK {
		t.Fatalf("issuing download grant: status %s", w.Status)
	}
	if g.URL == "" || !g.ExpiresAt.After(time.Now()) {
		t.Fatalf("malformed grant: %+v", g)
	}

	resp, err := http.Get(env.URL + g.URL)
	if err != nil {
		t.Fatalf("fetching signed url: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("fetching signed url: status %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != string(master) {
		t.Fatalf("served bytes differ from the master file")
	}

	// The other item has no master file at all.
	w = env.request(t, http.MethodPost, downloadPath(ord.ID, u.ID, unit.EnglishNote), env.UserToken, nil, nil)
	if w.StatusCode != http.StatusNotFound {
		t.Fatalf("download with missing master: expected 404, got %s", w.Status)
	}

	// Grants are tied to the buyer, not the role.
	w = env.request(t, http.MethodPost, downloadPath(ord.ID, u.ID, unit.SinhalaNote), env.AdminToken, nil, nil)
	if w.StatusCode != http.StatusForbidden {
		t.Fatalf("download by non-owner: expected 403, got %s", w.Status)
	}

	// Consuming deletes the copy and sticks; a second consume is still success.
	var consumed struct {
		Downloaded bool `json:"downloaded"`
	}
	for i := 0; i < 2; i++ {
		w = env.request(t, http.MethodDelete, consumePath(ord.ID, u.ID, unit.SinhalaNote), env.UserToken, nil, &consumed)
		if w.StatusCode != http.StatusOK {
			t.Fatalf("consume attempt %d: status %s", i+1, w.Status)
		}
		if !consumed.Downloaded {
			t.Fatalf("consume attempt %d did not mark the item downloaded", i+1)
		}
	}

	env.request(t, http.MethodGet, "/orders/"+ord.ID, env.UserToken, nil, &fetched)
	for _, it := range fetched.Items {
		if it.ItemType == unit.SinhalaNote {
			if !it.Downloaded {
				t.Fatal("consumed item lost its downloaded mark")
			}
			if it.UserFilePath != nil {
				t.Fatalf("consumed item still points at a copy: %s", *it.UserFilePath)
			}
		}
	}
}

func TestDownloadWindow(t *testing.T) {
	env, err := NewTestEnv(t, "download_window_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	u := createUnitOK(t, env)
	env.Store.Put(content.MasterPath(u.ID, unit.SinhalaNote), []byte("%PDF-1.4"))

	ord := createOrderOK(t, env, []order.ItemNew{{UnitID: u.ID, ItemType: unit.SinhalaNote}})
	completeOrderOK(t, env, ord.ID)

	backdate := func(interval string) {
		t.Helper()
		const q = `UPDATE orders SET completed_at = now() - $1::interval WHERE order_id = $2`
		if _, err := env.DB.ExecContext(context.TODO(), q, interval, ord.ID); err != nil {
			t.Fatalf("backdating completion: %v", err)
		}
	}

	// Just inside the six hour window.
	backdate("5 hours 59 minutes")
	w := env.request(t, http.MethodPost, downloadPath(ord.ID, u.ID, unit.SinhalaNote), env.UserToken, nil, nil)
	if w.StatusCode != http.StatusOK {
		t.Fatalf("download inside window: expected 200, got %s", w.Status)
	}

	// Just past it.
	backdate("6 hours 1 minute")
	w = env.request(t, http.MethodPost, downloadPath(ord.ID, u.ID, unit.SinhalaNote), env.UserToken, nil, nil)
	if w.StatusCode != http.StatusForbidden {
		t.Fatalf("download past window: expected 403, got %s", w.Status)
	}

	// A fresh completed order for the same item reopens access: latest wins.
	ord2 := createOrderOK(t, env, []order.ItemNew{{UnitID: u.ID, ItemType: unit.SinhalaNote}})
	completeOrderOK(t, env, ord2.ID)

	w = env.request(t, http.MethodPost, downloadPath(ord.ID, u.ID, unit.SinhalaNote), env.UserToken, nil, nil)
	if w.StatusCode != http.StatusOK {
		t.Fatalf("download after repurchase: expected 200, got %s", w.Status)
	}
}
