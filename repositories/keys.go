package repositories

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Key layout. The padded timestamp guarantees lexicographical order ==
// chronological order; the uuid suffix disambiguates same-nanosecond
// writes.
//
//	chat:{chatID}                         -> Chat
//	chatpair:{lo}:{hi}:{listing|-}        -> chatID
//	userchat:{userID}:{chatID}            -> chatID
//	msg:{chatID}:{ts %019d}:{msgID}       -> Message
//	msgref:{msgID}                        -> msg key
//	pending:{recipient}:{msgID}           -> msg key (status == sent)
//	unread:{recipient}:{chatID}:{msgID}   -> msg key (status != read)
const noListing = "-"

func chatKey(chatID uuid.UUID) []byte {
	return []byte("chat:" + chatID.String())
}

func pairKey(lo, hi, listingID string) []byte {
	if listingID == "" {
		listingID = noListing
	}
	return []byte(fmt.Sprintf("chatpair:%s:%s:%s", lo, hi, listingID))
}

func userChatKey(userID string, chatID uuid.UUID) []byte {
	return []byte(fmt.Sprintf("userchat:%s:%s", userID, chatID))
}

func userChatPrefix(userID string) []byte {
	return []byte("userchat:" + userID + ":")
}

func messageKey(chatID uuid.UUID, at time.Time, msgID uuid.UUID) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", chatID, at.UnixNano(), msgID))
}

func messagePrefix(chatID uuid.UUID) []byte {
	return []byte("msg:" + chatID.String() + ":")
}

func refKey(msgID uuid.UUID) []byte {
	return []byte("msgref:" + msgID.String())
}

func pendingKey(recipientID string, msgID uuid.UUID) []byte {
	return []byte(fmt.Sprintf("pending:%s:%s", recipientID, msgID))
}

func pendingPrefix(recipientID string) []byte {
	return []byte("pending:" + recipientID + ":")
}

func unreadKey(recipientID string, chatID, msgID uuid.UUID) []byte {
	return []byte(fmt.Sprintf("unread:%s:%s:%s", recipientID, chatID, msgID))
}

func unreadPrefix(recipientID string, chatID uuid.UUID) []byte {
	return []byte(fmt.Sprintf("unread:%s:%s:", recipientID, chatID))
}
