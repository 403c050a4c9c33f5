package usecase

import (
	"time"

	"railwatch-service/internal/domain/entity"
)

// AvailableSeats returns the "class:remaining" pairs for the requested
// seat classes a train actually offers. The upstream sentinel and the
// empty string both mean not available.
func AvailableSeats(train entity.TrainAvailability, requested []string) []string {
	var valid []string
	for _, name := range requested {
		count, ok := train.Seats[name]
		if ok && count != "" && count != entity.SeatUnavailable {
			valid = append(valid, name+":"+count)
		}
	}
	return valid
}

// MatchDirect filters a fetched train list down to trains with at least
// one requested seat class available. Pure: same inputs, same output.
func MatchDirect(trains []entity.TrainAvailability, requested []string) []entity.FoundTicket {
	var found []entity.FoundTicket
	for _, train := range trains {
		seats := AvailableSeats(train, requested)
		if len(seats) == 0 {
			continue
		}
		found = append(found, entity.FoundTicket{
			Code:       train.Code,
			DepartTime: train.DepartTime,
			ArriveTime: train.ArriveTime,
			Seats:      seats,
		})
	}
	return found
}

// LayoverMinutes computes the connection gap between a leg-A arrival and
// a leg-B departure, both "HH:MM" clock times. A departure numerically
// earlier than the arrival is taken as next-day; connections spanning
// more than one midnight are not representable in this data. Unparseable
// times yield 0.
func LayoverMinutes(arrive, depart string) int {
	const layout = "15:04"
	t1, err := time.Parse(layout, arrive)
	if err != nil {
		return 0
	}
	t2, err := time.Parse(layout, depart)
	if err != nil {
		return 0
	}
	if t2.Before(t1) {
		t2 = t2.Add(24 * time.Hour)
	}
	return int(t2.Sub(t1).Minutes())
}

// MatchTransfer combines two leg result sets into qualifying connecting
// plans: each leg must independently offer a requested seat class, and
// the layover at the via station must reach minLayover minutes. At most
// maxPlans plans are surfaced, in discovery order (leg A outer, leg B
// inner).
func MatchTransfer(legA, legB []entity.TrainAvailability, requested []string, minLayover, maxPlans int) []entity.TransferPlan {
	var plans []entity.TransferPlan
	for _, first := range legA {
		firstSeats := AvailableSeats(first, requested)
		if len(firstSeats) == 0 {
			continue
		}

		for _, second := range legB {
			secondSeats := AvailableSeats(second, requested)
			if len(secondSeats) == 0 {
				continue
			}

			layover := LayoverMinutes(first.ArriveTime, second.DepartTime)
			if layover < minLayover {
				continue
			}

			plans = append(plans, entity.TransferPlan{
				First: entity.FoundTicket{
					Code:       first.Code,
					DepartTime: first.DepartTime,
					ArriveTime: first.ArriveTime,
					Seats:      firstSeats,
				},
				Second: entity.FoundTicket{
					Code:       second.Code,
					DepartTime: second.DepartTime,
					ArriveTime: second.ArriveTime,
					Seats:      secondSeats,
				},
				LayoverMinutes: layover,
			})
			if len(plans) == maxPlans {
				return plans
			}
		}
	}
	return plans
}
