package mongostore

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/noah-isme/nade-api/internal/repository"
)

// primitiveRegex builds a case-insensitive regex; pattern must already be escaped.
func primitiveRegex(pattern string) primitive.Regex {
	return primitive.Regex{Pattern: pattern, Options: "i"}
}

func insertedHex(res *mongo.InsertOneResult) string {
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return ""
}

func duplicate(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicate
	}
	return err
}
