package rejection

// Reason 拒绝理由模板
type Reason struct {
	Key      string `json:"key"`
	Summary  string `json:"summary"`
	Template string `json:"template"`
}

// reasons 按展示顺序排列
var reasons = []Reason{
	{
		Key:      "not_ai_safety",
		Summary:  "Product is not focused on AI safety",
		Template: "Your work on {product_focus} is meaningful and clearly impactful. However, {company_name} is focused on {actual_focus} rather than on technologies that directly improve safety and security in the presence of risks created by advanced AI systems. Because of this, the project falls outside the scope of {org}'s investment mandate.",
	},
	{
		Key:      "early_stage_no_team",
		Summary:  "Too early stage with incomplete founding team",
		Template: "{product_area} is an important direction, and we can see why this category will matter as agentic systems become more widely deployed. However, {company_name} is still at a very early stage, and we generally look for teams with a committed founding group, clear technical ownership, and a more defined product trajectory before engaging as investors. Given the current state of the team and the work, we don't believe this is the right fit for {org} at this time.",
	},
	{
		Key:      "no_tech_cofounder",
		Summary:  "Lacks technical founding leadership",
		Template: "{problem_statement} is an important problem, and we can see the appeal of a product that {product_appeal}. However, {org} typically looks for teams with strong technical founding leadership given the complexity and competitiveness of building safety-critical AI systems. At this stage, and without a technical cofounder driving the core system, we don't believe {company_name} is the right fit for {org}'s focus.",
	},
	{
		Key:      "too_conceptual",
		Summary:  "Approach is too conceptual or lacks clear technical pathway",
		Template: "Your proposal explores ambitious ideas around {topic_area}. However, the approach as described is highly conceptual, and it's difficult for us to assess a clear technical pathway, feasibility, or near-term product direction. {org}'s focus is on companies building practical, deployable technologies that can be validated and scaled to improve safety and security in real-world AI systems, and {company_name} does not currently align with that focus.",
	},
	{
		Key:      "safety_angle_unclear",
		Summary:  "Safety impact is not clear or central to the product",
		Template: "{company_name}'s approach to {product_description} is thoughtful, and we can see how tools like this could be valuable for {target_users}. However, {org}'s focus is on companies building products that directly improve safety and security in the presence of advanced AI systems, and we are not yet convinced that {company_name}'s safety impact is sufficiently clear or central to the product. In addition, we typically look for teams with a full-time founder.",
	},
	{
		Key:      "not_for_profit",
		Summary:  "Not a for-profit company with scalable business model",
		Template: "We appreciate the work you've put into {company_name} and your commitment to developing {mission}. However, {org} is structured specifically to invest in for-profit companies with scalable business models. As {company_name} is {structure} and won't be offering equity to investors, we do not see a clear path for sufficient venture funding to be raised. Additionally, it is unclear to us that {distribution_concern}.",
	},
	{
		Key:      "general_not_aligned",
		Summary:  "General non-alignment with fund focus",
		Template: "We appreciate your ambition to {mission}. However, {company_name} appears primarily focused on {actual_focus}, which, while potentially impactful, are not aligned with {org}'s mission. Our focus is specifically centered on companies building products that directly improve safety and security in the presence of threats caused or created by AI systems. Given this focus, {category} sit outside the scope of what we fund.",
	},
}

// Reasons 全部拒绝理由
func Reasons() []Reason {
	out := make([]Reason, len(reasons))
	copy(out, reasons)
	return out
}

// Lookup 按 key 查找拒绝理由
func Lookup(key string) (Reason, bool) {
	for _, r := range reasons {
		if r.Key == key {
			return r, true
		}
	}
	return Reason{}, false
}
