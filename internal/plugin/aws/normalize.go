package aws

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/yairfalse/ec2inv/pkg/host"
)

// Flatten collects the instances of every reservation, keeping order.
func Flatten(reservations []ec2types.Reservation) []ec2types.Instance {
	var instances []ec2types.Instance
	for _, reservation := range reservations {
		instances = append(instances, reservation.Instances...)
	}
	return instances
}

// TagMap folds a tag list into a map. Later keys overwrite earlier ones.
func TagMap(tags []ec2types.Tag) map[string]string {
	m := make(map[string]string, len(tags))
	for _, tag := range tags {
		m[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
	}
	return m
}

// NewRecord converts an instance into a host record. Pass an empty region
// to leave Record.Region unset.
func NewRecord(instance ec2types.Instance, region string) host.Record {
	return host.FromTags(aws.ToString(instance.InstanceId), region, TagMap(instance.Tags))
}
