package utils

import (
	"strings"

	"railwatch-service/internal/domain/entity"
)

// The upstream left-ticket result is a "|"-delimited positional record.
// Only the offsets below are meaningful to matching; everything else in
// the row is ignored.
const (
	fieldTrainCode   = 3
	fieldFromStation = 6
	fieldToStation   = 7
	fieldDepartTime  = 8
	fieldArriveTime  = 9

	// minRecordFields is one past the highest seat offset; shorter rows
	// are malformed and dropped.
	minRecordFields = 33
)

// seatFieldOffsets maps seat class names to their record positions
var seatFieldOffsets = map[string]int{
	"商务": 32,
	"一等": 31,
	"二等": 30,
	"高软": 21,
	"软卧": 23,
	"硬卧": 28,
	"硬座": 29,
	"无座": 26,
}

// ParseTrainRecord parses one raw result row into a TrainAvailability.
// Returns false for rows of the wrong arity; such rows are dropped from
// the batch rather than failing it.
func ParseTrainRecord(raw string) (entity.TrainAvailability, bool) {
	parts := strings.Split(raw, "|")
	if len(parts) < minRecordFields {
		return entity.TrainAvailability{}, false
	}

	seats := make(map[string]string, len(seatFieldOffsets))
	for name, idx := range seatFieldOffsets {
		seats[name] = parts[idx]
	}

	return entity.TrainAvailability{
		Code:        parts[fieldTrainCode],
		FromStation: parts[fieldFromStation],
		ToStation:   parts[fieldToStation],
		DepartTime:  parts[fieldDepartTime],
		ArriveTime:  parts[fieldArriveTime],
		Seats:       seats,
	}, true
}

// ParseTrainRecords parses a result batch, silently dropping malformed rows
func ParseTrainRecords(raws []string) []entity.TrainAvailability {
	trains := make([]entity.TrainAvailability, 0, len(raws))
	for _, raw := range raws {
		if train, ok := ParseTrainRecord(raw); ok {
			trains = append(trains, train)
		}
	}
	return trains
}
