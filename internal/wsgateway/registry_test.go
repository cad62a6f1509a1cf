package wsgateway

import (
	"testing"
	"time"
)

func TestConnectionRegistry_AddRemove(t *testing.T) {
	registry := NewConnectionRegistry()
	conn := NewConnection("conn-1", "user-1", nil)

	registry.Add(conn)
	registry.Add(conn)

	retrieved, exists := registry.Get("conn-1")
	if !exists {
		t.Fatal("Expected connection to exist")
	}
	if retrieved.ID != "conn-1" {
		t.Errorf("Expected connection ID %s, got %s", "conn-1", retrieved.ID)
	}
	if registry.Count() != 1 {
		t.Errorf("Expected 1 connection, got %d", registry.Count())
	}
	if registry.CountByUser("user-1") != 1 {
		t.Errorf("Expected 1 connection for user-1, got %d", registry.CountByUser("user-1"))
	}

	if !registry.Remove("conn-1") {
		t.Error("Expected first remove to report the connection")
	}
	if registry.Remove("conn-1") {
		t.Error("Expected second remove to be a no-op")
	}
	if _, exists := registry.Get("conn-1"); exists {
		t.Error("Expected connection to be removed")
	}
	if registry.CountByUser("user-1") != 0 {
		t.Errorf("Expected 0 connections for user-1, got %d", registry.CountByUser("user-1"))
	}
}

func TestConnectionRegistry_PerUser(t *testing.T) {
	registry := NewConnectionRegistry()
	registry.Add(NewConnection("conn-1", "user-1", nil))
	registry.Add(NewConnection("conn-2", "user-1", nil))
	registry.Add(NewConnection("conn-3", "user-2", nil))

	if registry.CountByUser("user-1") != 2 {
		t.Errorf("Expected 2 connections for user-1, got %d", registry.CountByUser("user-1"))
	}

	registry.Remove("conn-1")
	if registry.CountByUser("user-1") != 1 {
		t.Errorf("Expected 1 connection for user-1, got %d", registry.CountByUser("user-1"))
	}
	if registry.Count() != 2 {
		t.Errorf("Expected 2 connections, got %d", registry.Count())
	}
}

func TestConnectionRegistry_SnapshotOrder(t *testing.T) {
	registry := NewConnectionRegistry()

	first := NewConnection("conn-b", "user-1", nil)
	second := NewConnection("conn-a", "user-1", nil)
	second.createdAt = first.createdAt.Add(time.Second)

	registry.Add(second)
	registry.Add(first)

	snapshot := registry.Snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("Expected 2 connections, got %d", len(snapshot))
	}
	if snapshot[0].ID != "conn-b" || snapshot[1].ID != "conn-a" {
		t.Errorf("Expected creation order, got %s, %s", snapshot[0].ID, snapshot[1].ID)
	}
}
