package validators

import "go.mongodb.org/mongo-driver/bson"

var ExclusiveLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"exclusive_key",
			"date_key",
			"bucket",
			"class_type_id",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"exclusive_key": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 40,
			},

			"date_key": bson.M{
				"bsonType": "string",
				"pattern":  `^\d{4}-\d{2}-\d{2}$`,
			},

			// 5-minute bucket index within the day: 0 to 287.
			"bucket": bson.M{
				"bsonType": "int",
				"minimum":  0,
				"maximum":  287,
			},

			"class_type_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
