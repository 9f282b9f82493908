package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// scanInstances pages through DescribeInstances and returns every instance
// in provider order.
func (p *Plugin) scanInstances(ctx context.Context) ([]ec2types.Instance, error) {
	paginator := ec2.NewDescribeInstancesPaginator(p.client, p.describeInput(),
		func(o *ec2.DescribeInstancesPaginatorOptions) {
			o.StopOnDuplicateToken = true
		})

	var instances []ec2types.Instance
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe instances: %w", err)
		}
		instances = append(instances, Flatten(output.Reservations)...)
	}

	return instances, nil
}

func (p *Plugin) describeInput() *ec2.DescribeInstancesInput {
	input := &ec2.DescribeInstancesInput{}
	if len(p.states) > 0 {
		input.Filters = []ec2types.Filter{
			{Name: aws.String("instance-state-name"), Values: p.states},
		}
	}
	return input
}
