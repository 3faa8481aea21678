package document

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IDField is the distinguished identifier field of every stored document.
const IDField = "_id"

// Document is a schema-less user record ready for JSON serialization.
type Document map[string]interface{}

// FromBSON copies raw into a Document with its identifier rendered as text.
// ObjectIDs become their 24-character hex form; other identifier types use
// their default string formatting. A nil input yields nil.
func FromBSON(raw bson.M) Document {
	if raw == nil {
		return nil
	}
	out := make(Document, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	if id, ok := raw[IDField]; ok {
		out[IDField] = IDString(id)
	}
	return out
}

// IDString renders an identifier value as text.
func IDString(id interface{}) string {
	switch v := id.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
