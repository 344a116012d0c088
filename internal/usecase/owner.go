package usecase

import (
	"strconv"
	"strings"
)

// Owner はカートと注文の持ち主。
// ログイン中は user:<id>、ゲストは guest:<session>。
type Owner struct {
	Key    string
	UserID *int64
}

func UserOwner(userID int64) Owner {
	id := userID
	return Owner{Key: "user:" + strconv.FormatInt(userID, 10), UserID: &id}
}

func GuestOwner(session string) Owner {
	return Owner{Key: "guest:" + strings.TrimSpace(session)}
}

func (o Owner) valid() bool {
	return o.Key != "" && o.Key != "guest:" && o.Key != "user:"
}
