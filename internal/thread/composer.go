package thread

import (
	"context"
	"errors"
	"sync"

	"github.com/BloggingApp/threadly/internal/dto"
	"github.com/BloggingApp/threadly/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrUnknownComment = errors.New("comment is not part of this thread")
	ErrNoReplyTarget  = errors.New("no reply is open")
	ErrClosed         = errors.New("thread is closed")
	ErrStarted        = errors.New("thread is already started")
)

// Source streams the children of one (post, parent) level.
type Source interface {
	SubscribeChildren(ctx context.Context, postID int64, parentID *int64, sort model.SortOption) (<-chan []*model.Comment, error)
}

type Writer interface {
	Create(ctx context.Context, author *model.CachedUser, input dto.CreateCommentDto) (*model.Comment, error)
}

// Composer keeps a live comment tree for one post. Every visible comment has its own
// level subscription for its replies; a level's context derives from its parent's, so
// cancelling a level stops its whole subtree.
type Composer struct {
	src    Source
	writer Writer
	logger *zap.Logger
	postID int64
	viewer *uuid.UUID

	// resortMu serializes tree replacement.
	resortMu sync.Mutex

	mu      sync.Mutex
	base    context.Context
	sort    model.SortOption
	tree    *tree
	replyTo *int64
	started bool
	closed  bool
	updates chan Snapshot
}

type tree struct {
	sort   model.SortOption
	cancel context.CancelFunc
	wg     sync.WaitGroup
	root   *level
}

type level struct {
	parentID *int64
	depth    int
	ctx      context.Context
	cancel   context.CancelFunc
	comments []*model.Comment
	children map[int64]*level
}

func New(src Source, writer Writer, postID int64, viewer *uuid.UUID, sort model.SortOption, logger *zap.Logger) *Composer {
	return &Composer{
		src:     src,
		writer:  writer,
		logger:  logger,
		postID:  postID,
		viewer:  viewer,
		sort:    sort,
		updates: make(chan Snapshot, 1),
	}
}

func (c *Composer) PostID() int64 {
	return c.postID
}

func (c *Composer) Viewer() *uuid.UUID {
	return c.viewer
}

// Updates receives the latest snapshot after every change. Only the newest
// undelivered snapshot is kept. The channel is closed by Close.
func (c *Composer) Updates() <-chan Snapshot {
	return c.updates
}

// Start opens the root level. The tree stops when ctx is done or on Close.
func (c *Composer) Start(ctx context.Context) error {
	c.resortMu.Lock()
	defer c.resortMu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.started {
		return ErrStarted
	}

	c.started = true
	c.base = ctx
	c.openTreeLocked()
	c.publishLocked()

	return nil
}

func (c *Composer) openTreeLocked() {
	ctx, cancel := context.WithCancel(c.base)
	t := &tree{sort: c.sort, cancel: cancel}
	t.root = c.openLevel(t, ctx, nil, 0)
	c.tree = t
}

func (c *Composer) openLevel(t *tree, parent context.Context, parentID *int64, depth int) *level {
	ctx, cancel := context.WithCancel(parent)
	l := &level{
		parentID: parentID,
		depth:    depth,
		ctx:      ctx,
		cancel:   cancel,
		children: map[int64]*level{},
	}

	t.wg.Add(1)
	go c.runLevel(t, l)

	return l
}

func (c *Composer) runLevel(t *tree, l *level) {
	defer t.wg.Done()

	results, err := c.src.SubscribeChildren(l.ctx, c.postID, l.parentID, t.sort)
	if err != nil {
		if l.ctx.Err() == nil {
			c.logger.Sugar().Errorf("failed to subscribe to post(%d) comments at depth %d: %s", c.postID, l.depth, err.Error())
		}
		return
	}

	for comments := range results {
		c.mu.Lock()
		if l.ctx.Err() != nil || c.tree != t {
			c.mu.Unlock()
			return
		}
		c.applyLocked(t, l, comments)
		c.publishLocked()
		c.mu.Unlock()
	}
}

// applyLocked stores a level's new children, opening levels for new comments and
// cancelling the subtrees of comments that are gone. Comments not addressed by the
// level's key are dropped.
func (c *Composer) applyLocked(t *tree, l *level, comments []*model.Comment) {
	kept := make([]*model.Comment, 0, len(comments))
	for _, comment := range comments {
		if comment.PostID == c.postID && comment.SameParent(l.parentID) {
			kept = append(kept, comment)
		}
	}
	l.comments = kept

	present := make(map[int64]struct{}, len(kept))
	for _, comment := range kept {
		present[comment.ID] = struct{}{}
		if _, ok := l.children[comment.ID]; ok {
			continue
		}
		id := comment.ID
		l.children[id] = c.openLevel(t, l.ctx, &id, l.depth+1)
	}

	for id, child := range l.children {
		if _, ok := present[id]; ok {
			continue
		}
		if c.replyTo != nil && (*c.replyTo == id || containsLevel(child, *c.replyTo)) {
			c.replyTo = nil
		}
		child.cancel()
		delete(l.children, id)
	}
}

func containsLevel(l *level, commentID int64) bool {
	for _, comment := range l.comments {
		if comment.ID == commentID {
			return true
		}
	}
	for _, child := range l.children {
		if containsLevel(child, commentID) {
			return true
		}
	}
	return false
}

func (c *Composer) publishLocked() {
	if c.closed {
		return
	}
	deliverLatest(c.updates, c.snapshotLocked())
}

func deliverLatest(out chan Snapshot, s Snapshot) {
	for {
		select {
		case out <- s:
			return
		default:
			select {
			case <-out:
			default:
			}
		}
	}
}

func (c *Composer) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshotLocked()
}

func (c *Composer) snapshotLocked() Snapshot {
	s := Snapshot{
		PostID:   c.postID,
		Sort:     c.sort,
		Comments: []*Node{},
	}
	if c.replyTo != nil {
		id := *c.replyTo
		s.ReplyTo = &id
	}
	if c.tree != nil {
		s.Comments = c.nodes(c.tree.root)
	}
	return s
}

func (c *Composer) nodes(l *level) []*Node {
	nodes := make([]*Node, 0, len(l.comments))
	for _, comment := range l.comments {
		node := &Node{
			Comment:  comment,
			Depth:    l.depth,
			Upvoted:  c.viewer != nil && comment.IsUpvotedBy(*c.viewer),
			Replying: c.replyTo != nil && *c.replyTo == comment.ID,
			Children: []*Node{},
		}
		if child, ok := l.children[comment.ID]; ok {
			node.Children = c.nodes(child)
		}
		nodes = append(nodes, node)
	}
	return nodes
}

// SetSort rebuilds the tree with a new order. The old tree is fully stopped before
// the new one is opened.
func (c *Composer) SetSort(sort model.SortOption) error {
	c.resortMu.Lock()
	defer c.resortMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.sort == sort {
		c.mu.Unlock()
		return nil
	}

	c.sort = sort
	old := c.tree
	c.tree = nil
	started := c.started
	c.mu.Unlock()

	if old != nil {
		old.cancel()
		old.wg.Wait()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if started && !c.closed {
		c.openTreeLocked()
	}
	c.publishLocked()

	return nil
}

// OpenReply makes commentID the thread's only reply target.
func (c *Composer) OpenReply(commentID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.tree == nil || !containsLevel(c.tree.root, commentID) {
		return ErrUnknownComment
	}

	c.replyTo = &commentID
	c.publishLocked()

	return nil
}

func (c *Composer) CancelReply() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.replyTo = nil
	c.publishLocked()
}

func (c *Composer) ReplyTarget() *int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.replyTo == nil {
		return nil
	}
	id := *c.replyTo
	return &id
}

// SubmitReply posts text as a reply to the open target. The target is cleared
// whether or not the write succeeds.
func (c *Composer) SubmitReply(ctx context.Context, author *model.CachedUser, text string) (*model.Comment, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	target := c.replyTo
	if target == nil {
		c.mu.Unlock()
		return nil, ErrNoReplyTarget
	}
	c.replyTo = nil
	c.publishLocked()
	c.mu.Unlock()

	return c.writer.Create(ctx, author, dto.CreateCommentDto{
		PostID:   c.postID,
		ParentID: target,
		Text:     text,
	})
}

func (c *Composer) SubmitComment(ctx context.Context, author *model.CachedUser, text string) (*model.Comment, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	return c.writer.Create(ctx, author, dto.CreateCommentDto{
		PostID: c.postID,
		Text:   text,
	})
}

// Close stops every level and waits for them before closing Updates. It is safe to call more than once.
func (c *Composer) Close() {
	c.resortMu.Lock()
	defer c.resortMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.replyTo = nil
	old := c.tree
	c.tree = nil
	c.mu.Unlock()

	if old != nil {
		old.cancel()
		old.wg.Wait()
	}

	close(c.updates)
}
