package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/baechuer/gig-tickets/internal/domain"
)

// API is the subset of *dynamodb.Client the directory uses.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	dynamodb.ScanAPIClient
}

// Directory reads gigs from a table keyed by the string attribute "slug".
type Directory struct {
	api   API
	table string
}

func New(api API, table string) *Directory {
	return &Directory{api: api, table: table}
}

func NewFromConfig(cfg aws.Config, table string) *Directory {
	return New(dynamodb.NewFromConfig(cfg), table)
}

func (d *Directory) FindBySlug(ctx context.Context, slug string) (domain.Gig, bool, error) {
	out, err := d.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.table),
		Key: map[string]types.AttributeValue{
			"slug": &types.AttributeValueMemberS{Value: slug},
		},
	})
	if err != nil {
		return domain.Gig{}, false, fmt.Errorf("dynamodb get %s: %w", d.table, err)
	}
	if len(out.Item) == 0 {
		return domain.Gig{}, false, nil
	}

	var g domain.Gig
	if err := attributevalue.UnmarshalMap(out.Item, &g); err != nil {
		return domain.Gig{}, false, fmt.Errorf("decode gig %q: %w", slug, err)
	}
	return g, true, nil
}

// FindAll scans the whole table, following pagination.
func (d *Directory) FindAll(ctx context.Context) ([]domain.Gig, error) {
	p := dynamodb.NewScanPaginator(d.api, &dynamodb.ScanInput{TableName: aws.String(d.table)})

	gigs := []domain.Gig{}
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("dynamodb scan %s: %w", d.table, err)
		}
		var batch []domain.Gig
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("decode gigs: %w", err)
		}
		gigs = append(gigs, batch...)
	}
	return gigs, nil
}
