package fastcache

// node is one cached blob in a shard's recency list. The head is the most
// recently used node.
type node struct {
	key        string
	blob       *blob
	prev, next *node
}

// recency is an intrusive doubly-linked list. It is not safe for
// concurrent use; the owning shard's mutex guards it.
type recency struct {
	head, tail *node
	len        int
}

func (l *recency) pushFront(n *node) {
	n.prev, n.next = nil, l.head
	if l.head != nil {
		l.head.prev = n
	} else {
		l.tail = n
	}
	l.head = n
	l.len++
}

func (l *recency) moveToFront(n *node) {
	if n == l.head {
		return
	}
	l.remove(n)
	l.pushFront(n)
}

// popBack removes and returns the least recently used node, or nil.
func (l *recency) popBack() *node {
	n := l.tail
	if n != nil {
		l.remove(n)
	}
	return n
}

func (l *recency) remove(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next = nil, nil
	l.len--
}
