package validators

import "go.mongodb.org/mongo-driver/bson"

var ClassTypeValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"capacity",
			"active",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"capacity": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  500,
			},

			"exclusive_key": bson.M{
				"bsonType":  "string",
				"maxLength": 40,
			},

			"active": bson.M{
				"bsonType": "bool",
			},

			"min_bookings": bson.M{
				"bsonType": "int",
				"minimum":  0,
				"maximum":  500,
			},

			"cutoff_hours": bson.M{
				"bsonType": "int",
				"minimum":  0,
				"maximum":  168,
			},

			"duration_min": bson.M{
				"bsonType": "int",
				"minimum":  0,
				"maximum":  1440,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
