package kis

// Wire types for the Korea Investment & Securities Open API. Every numeric
// field arrives as a string; the broker layer does the coercion.

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// envelope is the common response frame: rt_cd "0" means success, anything
// else carries the failure text in msg1.
type envelope struct {
	RtCd  string `json:"rt_cd"`
	MsgCd string `json:"msg_cd"`
	Msg1  string `json:"msg1"`
}

type priceResponse struct {
	envelope
	Output struct {
		StckPrpr string `json:"stck_prpr"`
	} `json:"output"`
}

type dailyChartResponse struct {
	envelope
	Output2 []dailyChartRow `json:"output2"`
}

type dailyChartRow struct {
	StckBsopDate string `json:"stck_bsop_date"`
	StckOprc     string `json:"stck_oprc"`
	StckHgpr     string `json:"stck_hgpr"`
	StckLwpr     string `json:"stck_lwpr"`
	StckClpr     string `json:"stck_clpr"`
	AcmlVol      string `json:"acml_vol"`
}

type orderRequestBody struct {
	CANO       string `json:"CANO"`
	AcntPrdtCd string `json:"ACNT_PRDT_CD"`
	PDNO       string `json:"PDNO"`
	OrdDvsn    string `json:"ORD_DVSN"`
	OrdQty     string `json:"ORD_QTY"`
	OrdUnpr    string `json:"ORD_UNPR"`
}

type orderResponse struct {
	envelope
	Output struct {
		KrxFwdgOrdOrgno string `json:"KRX_FWDG_ORD_ORGNO"`
		Odno            string `json:"ODNO"`
		OrdTmd          string `json:"ORD_TMD"`
	} `json:"output"`
}

type balanceResponse struct {
	envelope
	Output1 []balanceHolding `json:"output1"`
	Output2 []balanceSummary `json:"output2"`
}

type balanceHolding struct {
	Pdno        string `json:"pdno"`
	PrdtName    string `json:"prdt_name"`
	HldgQty     string `json:"hldg_qty"`
	PchsAvgPric string `json:"pchs_avg_pric"`
	Prpr        string `json:"prpr"`
	EvluAmt     string `json:"evlu_amt"`
	EvluPflsAmt string `json:"evlu_pfls_amt"`
	EvluPflsRt  string `json:"evlu_pfls_rt"`
}

type balanceSummary struct {
	DncaTotAmt string `json:"dnca_tot_amt"`
	TotEvluAmt string `json:"tot_evlu_amt"`
	NassAmt    string `json:"nass_amt"`
}
