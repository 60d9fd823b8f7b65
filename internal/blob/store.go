// Package blob stores uploaded ID documents.
package blob

import (
	"context"
	"path"

	id "trueconnect/pkg/domain"
)

// Store persists document bytes at a key and resolves keys to retrievable
// URLs. Delete exists only for compensation when a submission fails after
// its upload succeeded.
type Store interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (url string, err error)
	Delete(ctx context.Context, key string) error
}

// DocumentKey builds the canonical object key for a user's document:
// id-documents/{userID}/{fileName}. path.Base strips any directory
// components a client smuggles into the file name.
func DocumentKey(userID id.UserID, fileName string) string {
	return "id-documents/" + userID.String() + "/" + path.Base(fileName)
}
