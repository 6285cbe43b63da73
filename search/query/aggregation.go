// Copyright (c) 2024 TigerDB Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// 		http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package query

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/olivere/elastic/v7"

	"github.com/lscgzwd/trialsearch/search/params"
	"github.com/lscgzwd/trialsearch/search/schema"
)

// 聚合排序键
const (
	AggSortName  = "name"
	AggSortCount = "count"
)

// AggSortRules 合法的聚合排序及其默认顺序
var AggSortRules = SortRules{AggSortCount: OrderDesc, AggSortName: OrderAsc}

const (
	suffixNested    = "_nested"
	suffixFiltered  = "_filtered"
	suffixAncestors = "_ancestors"

	// attributeSize 单个聚合项每个属性列表的长度上限
	attributeSize = 100
)

// CodedAttribute 编码聚合项携带的一个列表，如 codes
type CodedAttribute struct {
	Key   string `yaml:"key"`
	Field string `yaml:"field"`
}

// CodedFamily 编码聚合：nested 路径下带编码属性的命名概念
type CodedFamily struct {
	Path       string           `yaml:"path"`
	NameField  string           `yaml:"name_field"`
	Attributes []CodedAttribute `yaml:"attributes"`

	// 设置 CodeField 和 AncestorField 后支持 agg_ancestor
	CodeField     string `yaml:"code_field"`
	AncestorField string `yaml:"ancestor_field"`
}

// Name 返回完整的名称字段
func (f CodedFamily) Name() string { return f.Path + "." + f.NameField }

// SupportsAncestors 是否支持 agg_ancestor
func (f CodedFamily) SupportsAncestors() bool {
	return f.CodeField != "" && f.AncestorField != ""
}

var interventionAttributes = []CodedAttribute{
	{Key: "codes", Field: "code"},
	{Key: "synonyms", Field: "synonyms"},
	{Key: "types", Field: "type"},
	{Key: "categories", Field: "category"},
}

// DefaultCodedFamilies 默认的编码聚合表
var DefaultCodedFamilies = []CodedFamily{
	{Path: "_interventions.drugs", NameField: "name", Attributes: interventionAttributes},
	{Path: "_interventions.nondrugs", NameField: "name", Attributes: interventionAttributes},
	{
		Path:      "_diseases",
		NameField: "term",
		Attributes: []CodedAttribute{
			{Key: "codes", Field: "codes"},
			{Key: "synonyms", Field: "synonyms"},
			{Key: "types", Field: "type"},
			{Key: "ancestor_ids", Field: "ancestor_ids"},
			{Key: "parent_ids", Field: "parent_ids"},
		},
		CodeField:     "codes",
		AncestorField: "ancestor_ids",
	},
	{
		Path:      "sites",
		NameField: "org_name",
		Attributes: []CodedAttribute{
			{Key: "codes", Field: "org_po_id"},
			{Key: "categories", Field: "org_family"},
			{Key: "types", Field: "org_to_family_relationship"},
		},
	},
}

// AggregationSpec 校验后的聚合请求
type AggregationSpec struct {
	Field       string
	Term        string
	Sort        string
	Order       string
	Size        int
	NestedPath  string
	Family      *CodedFamily
	AncestorIDs []string
}

// Bucket 聚合结果的一项。Attributes 为编码聚合的属性列表，普通聚合为 nil
type Bucket struct {
	Key        string
	Count      int64
	Attributes map[string][]string
}

// MarshalJSON 普通聚合输出 {key, count}
// 编码聚合额外输出 codes 等属性列表，列表不会为 null
func (b Bucket) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"key":   b.Key,
		"count": b.Count,
	}
	if b.Attributes == nil {
		return json.Marshal(out)
	}
	out["codes"] = []string{}
	for k, v := range b.Attributes {
		if v == nil {
			v = []string{}
		}
		out[k] = v
	}
	return json.Marshal(out)
}

// Has 属性 key 是否包含 value
func (b Bucket) Has(key, value string) bool {
	for _, v := range b.Attributes[key] {
		if v == value {
			return true
		}
	}
	return false
}

// AggregationComposer 构建聚合请求并解析结果
type AggregationComposer struct {
	schema   *schema.Schema
	families map[string]CodedFamily
}

// NewAggregationComposer 按编码聚合表创建 composer
func NewAggregationComposer(s *schema.Schema, families []CodedFamily) *AggregationComposer {
	byPath := make(map[string]CodedFamily, len(families))
	for _, f := range families {
		byPath[f.Path] = f
	}
	return &AggregationComposer{schema: s, families: byPath}
}

// Spec 校验聚合参数
func (c *AggregationComposer) Spec(p params.Params) (AggregationSpec, error) {
	errs := &params.ValidationError{}
	spec := AggregationSpec{
		Term: strings.TrimSpace(p.Get(params.ParamAggTerm)),
		Size: ParseSize(p, AggSizeLimit, errs),
	}
	spec.Sort, spec.Order = ParseSortOrder(p, AggSortRules, AggSortCount, errs)

	fields := p.Values(params.ParamAggField)
	switch {
	case len(fields) == 0 || strings.TrimSpace(fields[0]) == "":
		errs.Add(params.ParamAggField, "The agg_field parameter is required.")
	case len(fields) > 1:
		errs.Add(params.ParamAggField, "Only one agg_field may be supplied.")
	default:
		spec.Field = strings.TrimSpace(fields[0])
		if fam, ok := c.families[spec.Field]; ok {
			f := fam
			spec.Family = &f
			spec.NestedPath = fam.Path
		} else if c.schema.Is(spec.Field, schema.TypeString) {
			spec.NestedPath, _ = c.schema.NestedPathOf(spec.Field)
		} else {
			errs.Addf(params.ParamAggField, "Invalid agg_field supplied: %s.", spec.Field)
		}
	}

	if ids := p.List(params.ParamAncestors); len(ids) > 0 {
		if spec.Family == nil || !spec.Family.SupportsAncestors() {
			errs.Addf(params.ParamAncestors, "agg_ancestor is not supported for agg_field %s.", spec.Field)
		} else {
			spec.AncestorIDs = ids
		}
	}

	if err := errs.Err(); err != nil {
		return AggregationSpec{}, err
	}
	return spec, nil
}

// Build 返回 spec 对应的命名聚合
func (c *AggregationComposer) Build(spec AggregationSpec) (string, elastic.Aggregation) {
	if spec.Family != nil {
		return c.buildCoded(spec)
	}

	terms := c.orderedTerms(spec.Field, spec)
	var filters []elastic.Query
	if spec.Term != "" {
		filters = append(filters, c.termMatch(spec.Field, spec.Term, false))
	}
	name, agg := wrapFiltered(spec.Field, terms, filters)
	if spec.NestedPath == "" {
		return name, agg
	}
	return spec.Field + suffixNested, elastic.NewNestedAggregation().Path(spec.NestedPath).SubAggregation(name, agg)
}

func (c *AggregationComposer) buildCoded(spec AggregationSpec) (string, elastic.Aggregation) {
	fam := spec.Family
	terms := c.orderedTerms(fam.Name(), spec)
	for _, a := range fam.Attributes {
		terms = terms.SubAggregation(a.Key, elastic.NewTermsAggregation().Field(fam.Path+"."+a.Field).Size(attributeSize))
	}

	var filters []elastic.Query
	if spec.Term != "" {
		filters = append(filters, c.termMatch(fam.Name(), spec.Term, true))
	}
	if len(spec.AncestorIDs) > 0 {
		filters = append(filters, elastic.NewTermsQuery(fam.Path+"."+fam.AncestorField, toInterfaces(spec.AncestorIDs)...))
	}
	name, agg := wrapFiltered(spec.Field, terms, filters)
	return spec.Field + suffixNested, elastic.NewNestedAggregation().Path(fam.Path).SubAggregation(name, agg)
}

// AncestorNames 返回第一遍聚合，收集祖先概念本身的名称
// spec 没有祖先时 ok 为 false
func (c *AggregationComposer) AncestorNames(spec AggregationSpec) (string, elastic.Aggregation, bool) {
	if spec.Family == nil || len(spec.AncestorIDs) == 0 {
		return "", nil, false
	}
	fam := spec.Family
	name := spec.Field + suffixAncestors
	terms := elastic.NewTermsAggregation().Field(c.rawField(fam.Name())).Size(AggSizeLimit.Max)
	filter := elastic.NewFilterAggregation().
		Filter(elastic.NewTermsQuery(fam.Path+"."+fam.CodeField, toInterfaces(spec.AncestorIDs)...)).
		SubAggregation(name, terms)
	nested := elastic.NewNestedAggregation().Path(fam.Path).SubAggregation(name+suffixFiltered, filter)
	return name + suffixNested, nested, true
}

// ExtractAncestorNames 读取 AncestorNames 聚合的键
func (c *AggregationComposer) ExtractAncestorNames(spec AggregationSpec, aggs elastic.Aggregations) []string {
	items := findTerms(aggs, spec.Field+suffixAncestors)
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, bucketKey(item))
	}
	return names
}

// Extract 从响应中读取 Build 聚合的结果
func (c *AggregationComposer) Extract(spec AggregationSpec, aggs elastic.Aggregations) []Bucket {
	items := findTerms(aggs, spec.Field)
	buckets := make([]Bucket, 0, len(items))
	for _, item := range items {
		b := Bucket{Key: bucketKey(item), Count: item.DocCount}
		if spec.Family != nil {
			b.Attributes = make(map[string][]string, len(spec.Family.Attributes))
			for _, a := range spec.Family.Attributes {
				values := []string{}
				if sub, ok := item.Aggregations.Terms(a.Key); ok {
					for _, s := range sub.Buckets {
						values = append(values, bucketKey(s))
					}
				}
				b.Attributes[a.Key] = values
			}
		}
		buckets = append(buckets, b)
	}
	return buckets
}

// findTerms 经过可选的 <name>_nested 和 <name>_filtered 层找到名为 name 的 terms 聚合
func findTerms(aggs elastic.Aggregations, name string) []*elastic.AggregationBucketKeyItem {
	if aggs == nil {
		return nil
	}
	cur := aggs
	if n, ok := cur.Nested(name + suffixNested); ok {
		cur = n.Aggregations
	}
	if f, ok := cur.Filter(name + suffixFiltered); ok {
		cur = f.Aggregations
	}
	terms, ok := cur.Terms(name)
	if !ok {
		return nil
	}
	return terms.Buckets
}

func bucketKey(item *elastic.AggregationBucketKeyItem) string {
	if s, ok := item.Key.(string); ok {
		return s
	}
	if item.KeyAsString != nil {
		return *item.KeyAsString
	}
	return fmt.Sprint(item.Key)
}

func (c *AggregationComposer) orderedTerms(field string, spec AggregationSpec) *elastic.TermsAggregation {
	terms := elastic.NewTermsAggregation().Field(c.rawField(field)).Size(spec.Size)
	asc := spec.Order == OrderAsc
	if spec.Sort == AggSortName {
		return terms.OrderByKey(asc)
	}
	return terms.OrderByCount(asc)
}

func (c *AggregationComposer) rawField(field string) string {
	if c.schema.HasSubField(field, params.SuffixRaw) {
		return field + "." + params.SuffixRaw
	}
	return field
}

// termMatch 只保留名称匹配 term 的聚合项
// 编码聚合匹配自动补全字段，普通字段使用短语匹配
func (c *AggregationComposer) termMatch(field, term string, coded bool) elastic.Query {
	if !c.schema.HasSubField(field, params.SuffixAuto) {
		return elastic.NewMatchPhrasePrefixQuery(field, term)
	}
	auto := field + "." + params.SuffixAuto
	if coded {
		return elastic.NewMatchQuery(auto, term)
	}
	return elastic.NewMatchPhraseQuery(auto, term)
}

func wrapFiltered(field string, terms elastic.Aggregation, filters []elastic.Query) (string, elastic.Aggregation) {
	if len(filters) == 0 {
		return field, terms
	}
	var filter elastic.Query = elastic.NewBoolQuery().Filter(filters...)
	if len(filters) == 1 {
		filter = filters[0]
	}
	return field + suffixFiltered, elastic.NewFilterAggregation().Filter(filter).SubAggregation(field, terms)
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// NameMatch 聚合项名称与祖先名称的比较规则
type NameMatch string

const (
	NameMatchExact NameMatch = "exact"
	NameMatchFold  NameMatch = "fold"
	NameMatchNone  NameMatch = "none"
)

// Valid 是否已知规则
func (m NameMatch) Valid() bool {
	switch m {
	case NameMatchExact, NameMatchFold, NameMatchNone:
		return true
	}
	return false
}

// DropAncestorSubtypes 去掉重复祖先的聚合项
// 即名称按 rule 与祖先名称相同，且类型列表包含 subtype
func DropAncestorSubtypes(buckets []Bucket, ancestorNames []string, rule NameMatch, typesKey, subtype string) []Bucket {
	if rule == NameMatchNone || len(ancestorNames) == 0 {
		return buckets
	}
	names := make(map[string]bool, len(ancestorNames))
	for _, n := range ancestorNames {
		if rule == NameMatchFold {
			n = Fold(n)
		}
		names[n] = true
	}

	kept := make([]Bucket, 0, len(buckets))
	for _, b := range buckets {
		key := b.Key
		if rule == NameMatchFold {
			key = Fold(key)
		}
		if names[key] && b.Has(typesKey, subtype) {
			continue
		}
		kept = append(kept, b)
	}
	return kept
}
