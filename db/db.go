package db

import (
	"os"
	"strconv"

	"github.com/chibicitiberiu/chordsheet-engine/constants"
	"github.com/chibicitiberiu/chordsheet-engine/model"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/pkg/errors"
)

// batchLimit is DynamoDB's BatchGetItem cap we stay under per call.
const batchLimit = 10

// GetSongMetadatas looks up title/artist/year for song files in the
// songbook table. Missing files simply have no entry in the result.
func GetSongMetadatas(filenames []string) (map[string]model.SongMetadata, error) {
	res := make(map[string]model.SongMetadata)
	if len(filenames) == 0 {
		return res, nil
	}

	endpoint := os.Getenv("DYNAMO_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:8000"
	}
	sess, err := session.NewSession(&aws.Config{
		Region:   aws.String("localhost"),
		Endpoint: &endpoint,
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not create DynamoDB session")
	}
	client := dynamodb.New(sess)

	table := constants.GetSongbookTable()
	for start := 0; start < len(filenames); start += batchLimit {
		end := start + batchLimit
		if end > len(filenames) {
			end = len(filenames)
		}

		var keys []map[string]*dynamodb.AttributeValue
		for _, filename := range filenames[start:end] {
			keys = append(keys, map[string]*dynamodb.AttributeValue{
				"PK": {S: aws.String(filename)},
			})
		}

		input := &dynamodb.BatchGetItemInput{
			RequestItems: map[string]*dynamodb.KeysAndAttributes{
				table: {Keys: keys},
			},
		}
		dbres, err := client.BatchGetItem(input)
		if err != nil {
			return nil, errors.Wrap(err, "BatchGetItem failed")
		}

		for _, v := range dbres.Responses[table] {
			var m model.SongMetadata
			if v["Title"] != nil && v["Title"].S != nil {
				m.Title = *v["Title"].S
			}
			if v["Artist"] != nil && v["Artist"].S != nil {
				m.Artist = *v["Artist"].S
			}
			if v["Year"] != nil && v["Year"].N != nil {
				year, _ := strconv.ParseUint(*v["Year"].N, 10, 32)
				m.Year = uint(year)
			}
			if v["PK"] != nil && v["PK"].S != nil {
				res[*v["PK"].S] = m
			}
		}
	}

	return res, nil
}
