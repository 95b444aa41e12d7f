package realtime

import (
	"testing"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

type stopUpdate struct {
	StopID    string
	Departure time.Time
	Arrival   time.Time
	Skipped   bool
}

type tripUpdate struct {
	TripID   string
	Canceled bool
	Stops    []stopUpdate
}

// buildFeed assembles a FULL_DATASET feed message from trip updates.
func buildFeed(t *testing.T, updates []tripUpdate) *gtfs.FeedMessage {
	t.Helper()

	entity := make([]*gtfs.FeedEntity, 0, len(updates))
	for _, tu := range updates {
		stus := make([]*gtfs.TripUpdate_StopTimeUpdate, 0, len(tu.Stops))
		for _, su := range tu.Stops {
			rel := gtfs.TripUpdate_StopTimeUpdate_SCHEDULED
			if su.Skipped {
				rel = gtfs.TripUpdate_StopTimeUpdate_SKIPPED
			}
			stu := &gtfs.TripUpdate_StopTimeUpdate{
				StopId:               proto.String(su.StopID),
				ScheduleRelationship: rel.Enum(),
			}
			if !su.Departure.IsZero() {
				stu.Departure = &gtfs.TripUpdate_StopTimeEvent{Time: proto.Int64(su.Departure.Unix())}
			}
			if !su.Arrival.IsZero() {
				stu.Arrival = &gtfs.TripUpdate_StopTimeEvent{Time: proto.Int64(su.Arrival.Unix())}
			}
			stus = append(stus, stu)
		}

		tripRel := gtfs.TripDescriptor_SCHEDULED
		if tu.Canceled {
			tripRel = gtfs.TripDescriptor_CANCELED
		}
		entity = append(entity, &gtfs.FeedEntity{
			Id: proto.String(tu.TripID),
			TripUpdate: &gtfs.TripUpdate{
				Trip: &gtfs.TripDescriptor{
					TripId:               proto.String(tu.TripID),
					ScheduleRelationship: tripRel.Enum(),
				},
				StopTimeUpdate: stus,
			},
		})
	}

	return &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Incrementality:      gtfs.FeedHeader_FULL_DATASET.Enum(),
			Timestamp:           proto.Uint64(uint64(time.Date(2025, 5, 27, 17, 0, 0, 0, time.UTC).Unix())),
		},
		Entity: entity,
	}
}

func marshalFeed(t *testing.T, feed *gtfs.FeedMessage) []byte {
	t.Helper()
	data, err := proto.Marshal(feed)
	require.NoError(t, err)
	return data
}
