package thread

import (
	"github.com/BloggingApp/threadly/internal/model"
)

// Snapshot is the rendered state of a thread at one moment.
type Snapshot struct {
	PostID   int64            `json:"post_id"`
	Sort     model.SortOption `json:"sort"`
	ReplyTo  *int64           `json:"reply_to"`
	Comments []*Node          `json:"comments"`
}

type Node struct {
	Comment  *model.Comment `json:"comment"`
	Depth    int            `json:"depth"`
	Upvoted  bool           `json:"upvoted"`
	Replying bool           `json:"replying"`
	Children []*Node        `json:"children"`
}

// Find returns the node of the comment with the given id, or nil.
func (s Snapshot) Find(commentID int64) *Node {
	return findNode(s.Comments, commentID)
}

func findNode(nodes []*Node, commentID int64) *Node {
	for _, n := range nodes {
		if n.Comment.ID == commentID {
			return n
		}
		if found := findNode(n.Children, commentID); found != nil {
			return found
		}
	}
	return nil
}

// Count returns how many times the comment appears in the tree.
func (s Snapshot) Count(commentID int64) int {
	return countNode(s.Comments, commentID)
}

func countNode(nodes []*Node, commentID int64) int {
	var n int
	for _, node := range nodes {
		if node.Comment.ID == commentID {
			n++
		}
		n += countNode(node.Children, commentID)
	}
	return n
}
