package repository

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// objectID parses a hex id, mapping failures to ErrInvalidID.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}

// anyIDFilter matches a document whose _id is either the raw string or, when
// it parses, the equivalent ObjectID.  Menu items use both forms.
func anyIDFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{id, oid}}}
	}
	return bson.M{"_id": id}
}

// splitObjectIDs parses every id, returning the parsed ones and the ids that
// are not valid ObjectIDs.
func splitObjectIDs(ids []string) (valid []primitive.ObjectID, invalid []string) {
	seen := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			invalid = append(invalid, id)
			continue
		}
		if !seen[oid] {
			seen[oid] = true
			valid = append(valid, oid)
		}
	}
	return valid, invalid
}
