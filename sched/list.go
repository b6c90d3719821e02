// File: sched/list.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Slot-indexed intrusive task lists. Every mutation checks the membership
// tag: pushing a task that already sits in a list, or removing one that
// does not, is a kernel bug and halts the core.

package sched

import "github.com/momentics/hioload-sched/api"

// taskList is a doubly linked list of table slots.
type taskList struct {
	first, last api.TaskID
}

func (l *taskList) init() {
	l.first = api.NoTask
	l.last = api.NoTask
}

func (l *taskList) empty() bool { return l.first == api.NoTask }

// listPushBack appends id, tagging it as a member of tag.
func (k *Kernel) listPushBack(l *taskList, id api.TaskID, tag listTag) {
	t := k.task(id)
	if t.member != memberNone {
		k.fatal("task %d pushed while already queued (tag %d)", id, t.member)
	}
	t.member = tag
	t.next = api.NoTask
	t.prev = l.last
	if l.last != api.NoTask {
		k.task(l.last).next = id
	} else {
		l.first = id
	}
	l.last = id
}

// listInsertBefore places id in front of pos, tagging it as a member of tag.
func (k *Kernel) listInsertBefore(l *taskList, id, pos api.TaskID, tag listTag) {
	t := k.task(id)
	if t.member != memberNone {
		k.fatal("task %d inserted while already queued (tag %d)", id, t.member)
	}
	p := k.task(pos)
	t.member = tag
	t.next = pos
	t.prev = p.prev
	p.prev = id
	if t.prev != api.NoTask {
		k.task(t.prev).next = id
	} else {
		l.first = id
	}
}

// listPopFront removes and returns the head, or api.NoTask.
func (k *Kernel) listPopFront(l *taskList) api.TaskID {
	id := l.first
	if id == api.NoTask {
		return api.NoTask
	}
	t := k.task(id)
	l.first = t.next
	if l.first != api.NoTask {
		k.task(l.first).prev = api.NoTask
	} else {
		l.last = api.NoTask
	}
	t.next = api.NoTask
	t.prev = api.NoTask
	t.member = memberNone
	return id
}

// listRemove unlinks id from l.
func (k *Kernel) listRemove(l *taskList, id api.TaskID) {
	t := k.task(id)
	if t.member == memberNone {
		k.fatal("task %d removed while not queued", id)
	}
	if t.prev != api.NoTask {
		k.task(t.prev).next = t.next
	}
	if t.next != api.NoTask {
		k.task(t.next).prev = t.prev
	}
	if l.first == id {
		l.first = t.next
	}
	if l.last == id {
		l.last = t.prev
	}
	t.next = api.NoTask
	t.prev = api.NoTask
	t.member = memberNone
}
