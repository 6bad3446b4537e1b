package bst

import (
	"math/rand"
	"testing"
)

func collectKeys(t *Tree) []int64 {
	var keys []int64
	t.InOrder(func(n *Node) bool {
		keys = append(keys, n.Key)
		return true
	})
	return keys
}

func TestInsertAndSearch(t *testing.T) {
	tree := New()
	for _, k := range []int64{5, 3, 8, 1, 4} {
		tree.Insert(k, k*10)
	}

	if tree.Size != 5 {
		t.Fatalf("Size = %d, want 5", tree.Size)
	}

	for _, k := range []int64{5, 3, 8, 1, 4} {
		node := tree.Search(k)
		if node == nil {
			t.Fatalf("Search(%d) = nil, want a node", k)
		}
		if node.Value != k*10 {
			t.Fatalf("Search(%d).Value = %d, want %d", k, node.Value, k*10)
		}
	}

	if tree.Search(99) != nil {
		t.Fatalf("Search(99) = non-nil, want nil for an absent key")
	}
}

func TestContainsMatchesSearch(t *testing.T) {
	tree := New()
	tree.Insert(42, 1)

	if !tree.Contains(42) {
		t.Fatalf("Contains(42) = false, want true")
	}
	if tree.Contains(43) {
		t.Fatalf("Contains(43) = true, want false")
	}
}

func TestInOrderIsAscending(t *testing.T) {
	tree := New()
	for _, k := range []int64{5, 3, 8, 1, 4} {
		tree.Insert(k, 0)
	}

	got := collectKeys(tree)
	want := []int64{1, 3, 4, 5, 8}
	if len(got) != len(want) {
		t.Fatalf("InOrder produced %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("InOrder produced %v, want %v", got, want)
		}
	}
}

func TestInOrderEarlyTermination(t *testing.T) {
	tree := New()
	for _, k := range []int64{5, 3, 8, 1, 4} {
		tree.Insert(k, 0)
	}

	var visited []int64
	tree.InOrder(func(n *Node) bool {
		visited = append(visited, n.Key)
		return n.Key < 3
	})

	want := []int64{1, 3}
	if len(visited) != len(want) {
		t.Fatalf("visited %v, want %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Fatalf("visited %v, want %v", visited, want)
		}
	}
}

func TestMin(t *testing.T) {
	tree := New()
	if tree.Min() != nil {
		t.Fatalf("Min() on empty tree = non-nil, want nil")
	}

	for _, k := range []int64{5, 3, 8, 1, 4} {
		tree.Insert(k, 0)
	}
	if got := tree.Min().Key; got != 1 {
		t.Fatalf("Min().Key = %d, want 1", got)
	}
}

func TestRemoveLeaf(t *testing.T) {
	tree := New()
	for _, k := range []int64{5, 3, 8} {
		tree.Insert(k, k)
	}

	var out int64
	if !tree.Remove(3, &out) {
		t.Fatalf("Remove(3) = false, want true")
	}
	if out != 3 {
		t.Fatalf("Remove(3) out = %d, want 3", out)
	}
	if tree.Size != 2 {
		t.Fatalf("Size after remove = %d, want 2", tree.Size)
	}
	if tree.Contains(3) {
		t.Fatalf("Contains(3) = true after removal")
	}
}

func TestRemoveOneChild(t *testing.T) {
	tree := New()
	// 5 -> left 3 -> left 1 (3 has a single child)
	for _, k := range []int64{5, 3, 1} {
		tree.Insert(k, k)
	}

	if !tree.Remove(3, nil) {
		t.Fatalf("Remove(3) = false, want true")
	}
	if tree.Contains(3) {
		t.Fatalf("Contains(3) = true after removal")
	}
	if !tree.Contains(1) || !tree.Contains(5) {
		t.Fatalf("sibling keys lost after removing a one-child node")
	}
	got := collectKeys(tree)
	want := []int64{1, 5}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("InOrder after remove = %v, want %v", got, want)
	}
}

func TestRemoveTwoChildrenUsesRightSuccessor(t *testing.T) {
	tree := New()
	for _, k := range []int64{5, 3, 8, 1, 4, 7, 9} {
		tree.Insert(k, k*100)
	}

	if !tree.Remove(5, nil) {
		t.Fatalf("Remove(5) = false, want true")
	}

	// In-order traversal must still be strictly ascending, and the
	// successor (7, the minimum of the right subtree) must have taken
	// node 5's place with its own value intact.
	got := collectKeys(tree)
	want := []int64{1, 3, 4, 7, 8, 9}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("InOrder after two-child remove = %v, want %v", got, want)
		}
	}
	node := tree.Search(7)
	if node == nil || node.Value != 700 {
		t.Fatalf("successor node carries wrong value: %+v", node)
	}
	if tree.Contains(5) {
		t.Fatalf("Contains(5) = true after removal")
	}
}

func TestRemoveMissingKeyLeavesTreeUnchanged(t *testing.T) {
	tree := New()
	tree.Insert(1, 1)
	tree.Insert(2, 2)

	if tree.Remove(99, nil) {
		t.Fatalf("Remove(99) = true, want false for an absent key")
	}
	if tree.Size != 2 {
		t.Fatalf("Size = %d after no-op remove, want 2", tree.Size)
	}
}

// TestRandomSequenceInvariants exercises a long interleaving of insert
// and remove: after any sequence, in-order traversal of the live keys
// is ascending, and size equals the number of live nodes.
func TestRandomSequenceInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	tree := New()
	live := make(map[int64]int64)

	for i := 0; i < 2000; i++ {
		key := rng.Int63n(200)
		if _, ok := live[key]; ok {
			var out int64
			if !tree.Remove(key, &out) {
				t.Fatalf("Remove(%d) = false, want true for a live key", key)
			}
			if out != live[key] {
				t.Fatalf("Remove(%d) out = %d, want %d", key, out, live[key])
			}
			delete(live, key)
		} else {
			tree.Insert(key, key*7)
			live[key] = key * 7
		}

		if tree.Size != int64(len(live)) {
			t.Fatalf("Size = %d, want %d live keys", tree.Size, len(live))
		}
	}

	got := collectKeys(tree)
	if len(got) != len(live) {
		t.Fatalf("InOrder produced %d keys, want %d", len(got), len(live))
	}
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("InOrder not strictly ascending at index %d: %v", i, got)
		}
	}
	for _, k := range got {
		if _, ok := live[k]; !ok {
			t.Fatalf("InOrder produced key %d that is not tracked as live", k)
		}
	}
}

func TestDestroyResetsTree(t *testing.T) {
	tree := New()
	tree.Insert(1, 1)
	tree.Insert(2, 2)
	tree.Destroy()

	if tree.Size != 0 || tree.Root != nil {
		t.Fatalf("tree not empty after Destroy: size=%d root=%v", tree.Size, tree.Root)
	}
}
