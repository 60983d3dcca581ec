package catalog

import "go-skin-inspector/pkg/models"

var defaultConditions = []models.Condition{
	{
		ID:          "actinic-keratoses",
		Name:        "Actinic Keratoses and Intraepithelial Carcinoma",
		Description: "Actinic keratoses are pre-cancerous lesions that appear on sun-damaged skin. Intraepithelial carcinoma (Bowen's disease) is an early form of skin cancer that appears as a persistent, non-elevated red, scaly or crusted plaque.",
		Symptoms: []string{
			"Rough, scaly patches on skin",
			"Dry, discolored areas",
			"Sometimes itchy or painful to touch",
			"Often appears on face, lips, ears, hands, forearms, and neck",
		},
		Treatment:             "Treatment options include cryotherapy (freezing), topical medications (such as 5-fluorouracil, imiquimod, or ingenol mebutate), photodynamic therapy, curettage, or laser therapy. Regular follow-ups with a dermatologist are recommended.",
		Risk:                  models.RiskModerate,
		NeedsMedicalAttention: true,
	},
	{
		ID:          "basal-cell-carcinoma",
		Name:        "Basal Cell Carcinoma",
		Description: "Basal cell carcinoma is the most common type of skin cancer. It typically appears as a pearly or waxy bump, or a flat, flesh-colored or brown scar-like lesion.",
		Symptoms: []string{
			"Pearly or waxy bump",
			"Flat, flesh-colored or brown scar-like lesion",
			"Sore that bleeds, scabs, heals and then returns",
			"Most commonly found on sun-exposed areas",
		},
		Treatment:             "Treatment options include surgical excision, Mohs surgery, radiation therapy, cryotherapy, photodynamic therapy, topical medications, or laser surgery. Early treatment is important to prevent growth and damage to surrounding tissues.",
		Risk:                  models.RiskModerate,
		NeedsMedicalAttention: true,
	},
	{
		ID:          "benign-keratosis",
		Name:        "Benign Keratosis-like Lesions",
		Description: "Benign keratosis-like lesions, including seborrheic keratoses, are non-cancerous growths on the skin. They may look worrisome but are harmless.",
		Symptoms: []string{
			"Waxy, stuck-on appearance",
			"Varying color from light tan to black",
			"Round or oval shaped growths",
			"Can appear anywhere on the body except palms and soles",
		},
		Treatment:             "These lesions are benign and typically don't require treatment unless they become irritated or you want them removed for cosmetic reasons. Treatment options include cryotherapy, electrosurgery, curettage, or laser therapy.",
		Risk:                  models.RiskLow,
		NeedsMedicalAttention: false,
	},
	{
		ID:          "dermatofibroma",
		Name:        "Dermatofibroma",
		Description: "Dermatofibroma is a common benign skin tumor that usually appears as a small, firm bump. They're most commonly found on the legs but can occur anywhere on the body.",
		Symptoms: []string{
			"Small, firm, rounded bump",
			"Usually brown, reddish-brown, or skin-colored",
			"May be tender or itchy",
			"Often dimples when pinched",
		},
		Treatment:             "Since these lesions are benign, they don't typically require treatment. If a dermatofibroma is bothersome or for cosmetic reasons, it can be surgically removed, though they may recur after removal.",
		Risk:                  models.RiskLow,
		NeedsMedicalAttention: false,
	},
	{
		ID:          "melanoma",
		Name:        "Melanoma",
		Description: "Melanoma is the most serious type of skin cancer. It develops in the cells that produce melanin, the pigment that gives skin its color. Melanoma can spread to other parts of the body if not caught early.",
		Symptoms: []string{
			"Asymmetrical mole or lesion",
			"Border irregularity",
			"Color variations within the same lesion",
			"Diameter larger than 6mm (pencil eraser)",
			"Evolving size, shape, color, or elevation",
		},
		Treatment:             "Treatment depends on the stage of melanoma but typically includes surgical removal of the melanoma and potentially some surrounding tissue. Advanced cases may require lymph node biopsy, immunotherapy, targeted therapy, chemotherapy, radiation therapy, or clinical trials.",
		Risk:                  models.RiskHigh,
		NeedsMedicalAttention: true,
	},
	{
		ID:          "melanocytic-nevi",
		Name:        "Melanocytic Nevi",
		Description: "Melanocytic nevi, commonly known as moles, are growths on the skin that are usually brown or black. They can appear anywhere on the body, alone or in groups.",
		Symptoms: []string{
			"Round or oval shape",
			"Flat or raised appearance",
			"Smooth surface",
			"Generally uniform color",
			"Usually less than 6mm in diameter",
		},
		Treatment:             "Most melanocytic nevi are benign and don't require treatment. However, if a mole changes in appearance or becomes concerning, it should be checked by a dermatologist. Removal may be recommended for suspicious moles, which will then be examined under a microscope to check for cancer cells.",
		Risk:                  models.RiskLow,
		NeedsMedicalAttention: false,
	},
	{
		ID:          "vascular-lesions",
		Name:        "Vascular Lesions",
		Description: "Vascular lesions are relatively common abnormalities of the skin and underlying tissues, involving blood vessels. They include hemangiomas, vascular malformations, and pyogenic granulomas.",
		Symptoms: []string{
			"Red, purple, or blue coloration",
			"Raised or flat appearance",
			"Can occur anywhere on the body",
			"May be present at birth or develop later",
		},
		Treatment:             "Treatment varies depending on the type, size, and location of the lesion. Options include observation (for lesions that may resolve on their own), laser therapy, sclerotherapy, surgical excision, or medications such as beta-blockers for certain hemangiomas.",
		Risk:                  models.RiskLow,
		NeedsMedicalAttention: false,
	},
}
