package redisrepo

import (
	"fmt"
	"strconv"
)

const (
	POST_KEY                 = "post:%d"                 // <postID>
	USER_CACHE_KEY           = "user-cache:%s"           // <userID>
	COMMENT_CHILDREN_CHANNEL = "comments:%d:children:%s" // <postID>:<parentID|root>
)

const rootParent = "root"

func PostKey(postID int64) string {
	return fmt.Sprintf(POST_KEY, postID)
}

func UserCacheKey(userID string) string {
	return fmt.Sprintf(USER_CACHE_KEY, userID)
}

func CommentChildrenChannel(postID int64, parentID *int64) string {
	parent := rootParent
	if parentID != nil {
		parent = strconv.FormatInt(*parentID, 10)
	}
	return fmt.Sprintf(COMMENT_CHILDREN_CHANNEL, postID, parent)
}
