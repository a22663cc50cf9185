package redisrepo

import "testing"

func TestCommentChildrenChannel(t *testing.T) {
	parentID := int64(42)

	if ch := CommentChildrenChannel(7, nil); ch != "comments:7:children:root" {
		t.Errorf("unexpected root channel: %s", ch)
	}
	if ch := CommentChildrenChannel(7, &parentID); ch != "comments:7:children:42" {
		t.Errorf("unexpected reply channel: %s", ch)
	}
	if CommentChildrenChannel(7, &parentID) == CommentChildrenChannel(8, &parentID) {
		t.Error("channels of different posts must differ")
	}
}

func TestKeys(t *testing.T) {
	if key := PostKey(3); key != "post:3" {
		t.Errorf("unexpected post key: %s", key)
	}
	if key := UserCacheKey("abc"); key != "user-cache:abc" {
		t.Errorf("unexpected user key: %s", key)
	}
}
