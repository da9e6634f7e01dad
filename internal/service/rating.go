package service

import (
	"context"
	"strconv"

	"github.com/Skotchmaster/product_rating/internal/events"
	"github.com/Skotchmaster/product_rating/internal/models"
	"github.com/Skotchmaster/product_rating/internal/repo"
	"github.com/Skotchmaster/product_rating/internal/util"
)

const (
	msgPairTaken  = "The fields user, product must make a unique set."
	msgNotOwner   = "cannot edit another user's review"
	ratingPairKey = NonFieldErrors
)

type RatingService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
	Topic  string
}

type RatingInput struct {
	User    *uint `json:"user"`
	Product *uint `json:"product"`
	Rating  *int  `json:"rating" validate:"omitnil,gte=0,lte=5"`
}

func decodeRating(fields fieldSet, p Payload, partial bool) (RatingInput, *ValidationError) {
	verr := NewValidationError()
	var in RatingInput

	if raw, ok := fields.take(p, "user", partial, verr); ok {
		if v, err := parsePK(raw); err != nil {
			verr.Add("user", err.Error())
		} else {
			in.User = &v
		}
	}
	if raw, ok := fields.take(p, "product", partial, verr); ok {
		if v, err := parsePK(raw); err != nil {
			verr.Add("product", err.Error())
		} else {
			in.Product = &v
		}
	}
	if raw, ok := fields.take(p, "rating", partial, verr); ok {
		if v, err := parseInt(raw); err != nil {
			verr.Add("rating", err.Error())
		} else {
			in.Rating = &v
		}
	}

	validateStruct(in, verr)
	return in, verr
}

func (in RatingInput) apply(r *models.Rating) {
	if in.User != nil {
		r.UserID = *in.User
	}
	if in.Product != nil {
		r.ProductID = *in.Product
	}
	if in.Rating != nil {
		r.Rating = *in.Rating
	}
}

// checkRefs verifies that supplied user and product ids point at rows.
func checkRefs(ctx context.Context, tx *repo.GormRepo, in RatingInput, verr *ValidationError) error {
	if in.User != nil {
		ok, err := tx.UserExists(ctx, *in.User)
		if err != nil {
			return err
		}
		if !ok {
			verr.Add("user", pkMissing(*in.User))
		}
	}
	if in.Product != nil {
		ok, err := tx.ProductExists(ctx, *in.Product)
		if err != nil {
			return err
		}
		if !ok {
			verr.Add("product", pkMissing(*in.Product))
		}
	}
	return nil
}

func checkPair(ctx context.Context, tx *repo.GormRepo, r *models.Rating, verr *ValidationError) error {
	if !verr.Empty() {
		return nil
	}
	taken, err := tx.RatingPairTaken(ctx, r.UserID, r.ProductID, r.ID)
	if err != nil {
		return err
	}
	if taken {
		verr.Add(ratingPairKey, msgPairTaken)
	}
	return nil
}

func (s *RatingService) ListRatings(ctx context.Context, page util.Page) (int64, []models.Rating, error) {
	return s.Repo.GetRatings(ctx, page.Offset(), page.Limit())
}

func (s *RatingService) GetRating(ctx context.Context, id uint) (*models.Rating, error) {
	r, err := s.Repo.GetRating(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return r, nil
}

func (s *RatingService) CreateRating(ctx context.Context, p Payload) (*models.Rating, error) {
	var r models.Rating
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		in, verr := decodeRating(ratingSerializer, p, false)
		if err := checkRefs(ctx, tx, in, verr); err != nil {
			return err
		}
		in.apply(&r)
		if err := checkPair(ctx, tx, &r, verr); err != nil {
			return err
		}
		if !verr.Empty() {
			return verr
		}
		return duplicate(tx.CreateRating(ctx, &r), ratingPairKey, msgPairTaken)
	})
	if err != nil {
		return nil, err
	}

	s.ratingChanged(ctx, events.RatingCreated, &r)
	return &r, nil
}

// UpdateRating is the full update. Only the owner may call it, and only the
// rating value is writable.
func (s *RatingService) UpdateRating(ctx context.Context, principal *models.User, id uint, p Payload) (*models.Rating, error) {
	var r *models.Rating
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var err error
		r, err = tx.GetRating(ctx, id)
		if err != nil {
			return notFound(err)
		}
		if principal == nil || r.UserID != principal.ID {
			return NonFieldError(msgNotOwner)
		}

		in, verr := decodeRating(ratingDetailSerializer, p, false)
		if !verr.Empty() {
			return verr
		}
		in.apply(r)
		return tx.SaveRating(ctx, r)
	})
	if err != nil {
		return nil, err
	}

	s.ratingChanged(ctx, events.RatingUpdated, r)
	return r, nil
}

// PartialUpdateRating changes only the supplied fields. It goes through the
// base serializer, so user and product may be reassigned.
func (s *RatingService) PartialUpdateRating(ctx context.Context, id uint, p Payload) (*models.Rating, error) {
	var r *models.Rating
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var err error
		r, err = tx.GetRating(ctx, id)
		if err != nil {
			return notFound(err)
		}

		in, verr := decodeRating(ratingSerializer, p, true)
		if err := checkRefs(ctx, tx, in, verr); err != nil {
			return err
		}
		in.apply(r)
		if in.User != nil || in.Product != nil {
			if err := checkPair(ctx, tx, r, verr); err != nil {
				return err
			}
		}
		if !verr.Empty() {
			return verr
		}
		return duplicate(tx.SaveRating(ctx, r), ratingPairKey, msgPairTaken)
	})
	if err != nil {
		return nil, err
	}

	s.ratingChanged(ctx, events.RatingUpdated, r)
	return r, nil
}

func (s *RatingService) DeleteRating(ctx context.Context, id uint) error {
	var r *models.Rating
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var err error
		r, err = tx.GetRating(ctx, id)
		if err != nil {
			return err
		}
		return tx.DeleteRating(ctx, id)
	})
	if err != nil {
		return notFound(err)
	}

	s.ratingChanged(ctx, events.RatingDeleted, r)
	return nil
}

func (s *RatingService) ratingChanged(ctx context.Context, typ string, r *models.Rating) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	publish(ctx, s.Events, s.Topic, strconv.FormatUint(uint64(r.ProductID), 10), map[string]any{
		"type":      typ,
		"ratingID":  r.ID,
		"userID":    r.UserID,
		"productID": r.ProductID,
		"rating":    r.Rating,
	})
}
